package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/rewards-cli/internal/adapters/session"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "rewards:session:"

type client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// Store keeps session artifacts in Redis so workers on several hosts can
// share them. A zero ttl keeps keys forever.
type Store struct {
	client client
	ttl    time.Duration
	closer func() error
}

var _ ports.SessionStore = (*Store)(nil)

func NewStore(settings domain.RedisSettings, ttl time.Duration) *Store {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})

	return &Store{client: rdb, ttl: ttl, closer: rdb.Close}
}

func newStoreWithClient(c client, ttl time.Duration) *Store {
	return &Store{client: c, ttl: ttl, closer: func() error { return nil }}
}

func (s *Store) Close() error {
	return s.closer()
}

func (s *Store) Load(ctx context.Context, email string, mode domain.DeviceMode) (domain.SessionState, error) {
	key, err := redisKey(email, mode)
	if err != nil {
		return domain.SessionState{}, err
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.SessionState{}, domain.ErrSessionNotFound
		}
		return domain.SessionState{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	return session.Decode(data)
}

func (s *Store) Save(ctx context.Context, email string, mode domain.DeviceMode, state domain.SessionState) error {
	key, err := redisKey(email, mode)
	if err != nil {
		return err
	}
	data, err := session.Encode(state)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

func redisKey(email string, mode domain.DeviceMode) (string, error) {
	key, err := session.Key(email, mode)
	if err != nil {
		return "", err
	}

	return keyPrefix + key, nil
}
