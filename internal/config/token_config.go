package config

import (
	"strconv"
	"time"
)

type TokenConfig interface {
	GetAlgorithm() string
	GetKeyID() string
	GetPrivateKeyPEM() string
	GetPrivateKeyPath() string
	GetPublicKeyPEM() string
	GetPublicKeyPath() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetAlgorithm() string {
	return GetEnv("JWT_ALGORITHM", "RS256")
}

func (Token) GetKeyID() string {
	return GetEnv("JWT_KID", "default")
}

// GetPrivateKeyPEM returns inline PEM material; takes precedence over the path
func (Token) GetPrivateKeyPEM() string {
	return GetEnv("JWT_PRIVATE_KEY_PEM", "")
}

func (Token) GetPrivateKeyPath() string {
	return GetEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem")
}

func (Token) GetPublicKeyPEM() string {
	return GetEnv("JWT_PUBLIC_KEY_PEM", "")
}

func (Token) GetPublicKeyPath() string {
	return GetEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem")
}

func (Token) GetAccessTokenExpiry() time.Duration {
	return envSeconds("ACCESS_TOKEN_EXPIRE_SECONDS", 900)
}

func (Token) GetRefreshTokenExpiry() time.Duration {
	return envSeconds("REFRESH_TOKEN_EXPIRE_SECONDS", 1209600) // 14 days
}

func envSeconds(envVar string, defaultValue int) time.Duration {
	value := GetEnv(envVar, "")
	if value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Duration(defaultValue) * time.Second
}
