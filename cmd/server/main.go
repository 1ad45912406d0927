package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/sessions/redisstore"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/keys"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/jrsteele09/go-session-auth/users/verifierfakes"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	initLogging(c)

	// Key material is loaded exactly once; a missing private key aborts boot
	signer, err := loadSigner(c)
	if err != nil {
		return fmt.Errorf("signing key material: %w", err)
	}

	redisClient, err := redisstore.NewClient(c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zlog.Warn().Err(err).Msg("failed to close redis client")
		}
	}()

	tokens := token.New(signer,
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)

	verifier, err := bootstrapVerifier(c)
	if err != nil {
		return fmt.Errorf("bootstrap users: %w", err)
	}

	authService, err := auth.NewService(auth.Repos{
		Sessions: redisstore.New(redisClient),
		Users:    verifier,
	}, tokens)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	srv, err := server.New(c, authService, signer, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func initLogging(c config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func loadSigner(c config.Config) (*keys.KeyPairSigner, error) {
	privatePEM, err := keys.ResolvePEM(c.GetPrivateKeyPEM(), c.GetPrivateKeyPath())
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	publicPEM, err := keys.ResolvePEM(c.GetPublicKeyPEM(), c.GetPublicKeyPath())
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}

	keyPair, err := keys.LoadKeyPairFromPEM(c.GetKeyID(), c.GetAlgorithm(), privatePEM, publicPEM)
	if err != nil {
		return nil, err
	}
	return keys.NewKeyPairSigner(keyPair), nil
}

// bootstrapVerifier seeds the in-memory credential verifier. Real deployments
// replace this with their user service; the admin credentials come from the
// environment so local and CI runs can log in.
func bootstrapVerifier(c config.Config) (users.Verifier, error) {
	verifier := verifierfakes.NewFakeVerifier()

	email := config.GetEnv("BOOTSTRAP_ADMIN_EMAIL", "")
	password := config.GetEnv("BOOTSTRAP_ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		if c.GetEnv() != "DEV" {
			zlog.Warn().Msg("no bootstrap admin configured; logins will fail until a verifier is wired")
		}
		return verifier, nil
	}

	if err := verifier.AddUser(users.User{
		ID:         "admin",
		Email:      email,
		Username:   "admin",
		Role:       users.RoleAdmin,
		DateJoined: time.Now(),
	}, password); err != nil {
		return nil, err
	}

	zlog.Info().Str("email", email).Msg("bootstrap admin user registered")
	return verifier, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
