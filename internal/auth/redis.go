package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// DefaultCredentialTTL matches the server's refresh token lifetime. A
// stored pair is useless after it.
const DefaultCredentialTTL = 7 * 24 * time.Hour

// RedisBackend stores credentials as a hash per origin, so several
// processes on different hosts can share one login. Each save resets the
// hash's expiry.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithCredentialTTL sets the expiry applied on every save. Zero keeps the
// hash until it is deleted.
func WithCredentialTTL(d time.Duration) RedisOption {
	return func(r *RedisBackend) { r.ttl = d }
}

// NewRedisBackend parses a redis:// URL and returns a backend using it.
func NewRedisBackend(rawURL string, opts ...RedisOption) (*RedisBackend, error) {
	clientOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisBackendFromClient(redis.NewClient(clientOpts), opts...), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, opts ...RedisOption) *RedisBackend {
	r := &RedisBackend{
		client: client,
		prefix: serviceName + ":credentials:",
		ttl:    DefaultCredentialTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) key(origin string) string {
	return r.prefix + origin
}

func (r *RedisBackend) Load(origin string) (*Credentials, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, r.key(origin)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return &Credentials{
		AccessToken:  fields["access_token"],
		RefreshToken: fields["refresh_token"],
	}, nil
}

func (r *RedisBackend) Save(origin string, creds *Credentials) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	k := r.key(origin)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, "access_token", creds.AccessToken, "refresh_token", creds.RefreshToken)
		if r.ttl > 0 {
			pipe.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(origin string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.Del(ctx, r.key(origin)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
