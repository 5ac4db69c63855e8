package mockserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:refresh:revoked:"

// RevocationStore remembers refresh tokens that must no longer be accepted.
// Implementations receive token hashes, never raw tokens.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
	// RevokeIfAbsent revokes tokenHash in one step and reports false when it
	// was already revoked.
	RevokeIfAbsent(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error)
}

// MemoryRevocationStore keeps revocations in a bounded in-process set. Once
// the set holds maxSize unexpired revocations, further revocations fail.
type MemoryRevocationStore struct {
	set *expiringSet
}

func NewMemoryRevocationStore(maxSize int) *MemoryRevocationStore {
	return &MemoryRevocationStore{set: newExpiringSet(maxSize)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenHash string, ttl time.Duration) error {
	if tokenHash == "" {
		return nil
	}
	if err := s.set.Add(tokenHash, ttl); err != nil {
		return fmt.Errorf("revoke token failed: %w", err)
	}
	return nil
}

func (s *MemoryRevocationStore) RevokeIfAbsent(_ context.Context, tokenHash string, ttl time.Duration) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	added, err := s.set.AddIfAbsent(tokenHash, ttl)
	if err != nil {
		return false, fmt.Errorf("revoke token failed: %w", err)
	}
	return added, nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	return s.set.Contains(tokenHash), nil
}

// RedisConfig holds the settings of the redis-backed store.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	PoolSize     int           `yaml:"poolSize"`
}

// RedisRevocationStore keeps one expiring key per revoked token so entries
// disappear once the token could not be used anyway.
type RedisRevocationStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisRevocationStore(cfg RedisConfig) (*RedisRevocationStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr cannot be empty")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	return &RedisRevocationStore{client: client, timeout: cfg.ReadTimeout}, nil
}

func (s *RedisRevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisRevocationStore) Close() error {
	return s.client.Close()
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if tokenHash == "" {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, revokedKeyPrefix+tokenHash, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token failed: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) RevokeIfAbsent(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	if ttl < 0 {
		ttl = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	added, err := s.client.SetNX(ctx, revokedKeyPrefix+tokenHash, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revoke token failed: %w", err)
	}
	return added, nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.client.Get(ctx, revokedKeyPrefix+tokenHash).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token failed: %w", err)
	}
	return true, nil
}
