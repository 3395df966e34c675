// Package redis provides an issuance store backed by Redis.
// Issuances are stored as JSON with a TTL matching the policy expiration,
// so every server instance sees the same records.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/repository"
)

// DefaultKeyPrefix namespaces issuance keys.
const DefaultKeyPrefix = "formupload:issuance:"

// Options configures the Redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	KeyPrefix   string
}

// IssuanceStore implements repository.IssuanceStore using Redis.
type IssuanceStore struct {
	client    goredis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// NewIssuanceStore connects to Redis and verifies the connection with a ping.
func NewIssuanceStore(ctx context.Context, opts Options) (*IssuanceStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
	}

	return NewIssuanceStoreWithClient(client, opts.KeyPrefix), nil
}

// NewIssuanceStoreWithClient wraps an existing client.
func NewIssuanceStoreWithClient(client goredis.UniversalClient, keyPrefix string) *IssuanceStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &IssuanceStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (s *IssuanceStore) key(id string) string {
	return s.keyPrefix + id
}

// Save stores the issuance as JSON until its policy expires.
// An already expired issuance is not stored.
func (s *IssuanceStore) Save(ctx context.Context, issuance *domain.Issuance) error {
	if err := repository.ValidateIssuance(issuance); err != nil {
		return err
	}

	ttl := issuance.TTL(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(issuance)
	if err != nil {
		return fmt.Errorf("failed to encode issuance: %w", err)
	}

	if err := s.client.Set(ctx, s.key(issuance.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves an issuance by ID.
func (s *IssuanceStore) Get(ctx context.Context, id string) (*domain.Issuance, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrIssuanceNotFound
		}
		return nil, fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
	}

	var issuance domain.Issuance
	if err := json.Unmarshal(data, &issuance); err != nil {
		return nil, fmt.Errorf("failed to decode issuance %s: %w", id, err)
	}
	return &issuance, nil
}

// Delete removes an issuance by ID.
func (s *IssuanceStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *IssuanceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *IssuanceStore) Close() error {
	return s.client.Close()
}

// Ensure IssuanceStore implements repository.IssuanceStore.
var _ repository.IssuanceStore = (*IssuanceStore)(nil)
