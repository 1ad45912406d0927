package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix   = "session:"
	blacklistPrefix = "blacklist:"
)

// rotateScript deletes the old session key and creates the new one in a
// single scripted operation, so a concurrent verification never observes a
// window where both keys are live or where the loser of a rotation race can
// still rotate. Returns 0 when the old key was already gone.
var rotateScript = redis.NewScript(`
if redis.call("DEL", KEYS[1]) == 0 then
	return 0
end
redis.call("SET", KEYS[2], ARGV[1], "EX", ARGV[2])
return 1
`)

// NewClient creates the process-wide Redis client and verifies connectivity
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(sessions.ErrStoreUnavailable, "ping %s: %v", addr, err)
	}

	return client, nil
}

// Store is the Redis-backed session store
type Store struct {
	client *redis.Client
}

var _ sessions.Store = (*Store)(nil)

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func sessionKey(userID, tokenID string) string {
	return sessionPrefix + userID + ":" + tokenID
}

func blacklistKey(tokenID string) string {
	return blacklistPrefix + tokenID
}

func (s *Store) Create(ctx context.Context, session sessions.Session, ttl time.Duration) error {
	if session.UserID == "" || session.TokenID == "" {
		return errors.New("session: missing user_id or token_id")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be positive")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "session: failed to marshal")
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID, session.TokenID), data, ttl).Err(); err != nil {
		return errors.Wrapf(sessions.ErrStoreUnavailable, "create: %v", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, tokenID string) (*sessions.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(userID, tokenID)).Result()
	if err == redis.Nil {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(sessions.ErrStoreUnavailable, "get: %v", err)
	}

	var session sessions.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, errors.Wrap(err, "session: failed to unmarshal")
	}
	return &session, nil
}

func (s *Store) Rotate(ctx context.Context, userID, oldTokenID string, newSession sessions.Session, ttl time.Duration) error {
	if ttl < time.Second {
		return errors.New("session: ttl must be at least one second")
	}

	data, err := json.Marshal(newSession)
	if err != nil {
		return errors.Wrap(err, "session: failed to marshal")
	}

	keys := []string{
		sessionKey(userID, oldTokenID),
		sessionKey(newSession.UserID, newSession.TokenID),
	}
	res, err := rotateScript.Run(ctx, s.client, keys, data, int64(ttl.Seconds())).Int()
	if err != nil {
		return errors.Wrapf(sessions.ErrStoreUnavailable, "rotate: %v", err)
	}
	if res == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, userID, tokenID string) (bool, error) {
	deleted, err := s.client.Del(ctx, sessionKey(userID, tokenID)).Result()
	if err != nil {
		return false, errors.Wrapf(sessions.ErrStoreUnavailable, "revoke: %v", err)
	}
	return deleted > 0, nil
}

func (s *Store) RevokeAll(ctx context.Context, userID string) (int, error) {
	keys, err := s.scanUserKeys(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.Wrapf(sessions.ErrStoreUnavailable, "revoke all: %v", err)
	}
	return int(deleted), nil
}

func (s *Store) List(ctx context.Context, userID string) ([]sessions.Session, error) {
	keys, err := s.scanUserKeys(ctx, userID)
	if err != nil {
		return nil, err
	}

	list := make([]sessions.Session, 0, len(keys))
	for _, key := range keys {
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, errors.Wrapf(sessions.ErrStoreUnavailable, "list: %v", err)
		}

		var session sessions.Session
		if err := json.Unmarshal([]byte(val), &session); err != nil {
			return nil, errors.Wrap(err, "session: failed to unmarshal")
		}
		list = append(list, session)
	}
	return list, nil
}

func (s *Store) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := s.client.Set(ctx, blacklistKey(tokenID), "true", ttl).Err(); err != nil {
		return errors.Wrapf(sessions.ErrStoreUnavailable, "blacklist: %v", err)
	}
	return nil
}

func (s *Store) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	exists, err := s.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, errors.Wrapf(sessions.ErrStoreUnavailable, "blacklist check: %v", err)
	}
	return exists > 0, nil
}

func (s *Store) scanUserKeys(ctx context.Context, userID string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, sessionPrefix+userID+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(sessions.ErrStoreUnavailable, "scan: %v", err)
	}
	return keys, nil
}
