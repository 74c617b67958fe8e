// Package redis provides a Redis-backed kv.Substrate for devconsole.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// DefaultPrefix namespaces keys written by devconsole.
const DefaultPrefix = "devconsole:"

// Config holds Redis connection settings.
type Config struct {
	Addr        string // host:port
	Password    string
	DB          int
	Prefix      string // key prefix, DefaultPrefix when empty
	MaxIdle     int
	DialTimeout time.Duration
	// IOTimeout bounds each read and write on a connection. Defaults to 5s.
	IOTimeout time.Duration
}

// Store is a kv.Substrate backed by plain Redis strings.
type Store struct {
	pool   *redis.Pool
	prefix string
}

// NewStore creates a pooled client and verifies connectivity with PING.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: empty address")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 4
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	ioTimeout := cfg.IOTimeout
	if ioTimeout <= 0 {
		ioTimeout = 5 * time.Second
	}

	pool := &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialDatabase(cfg.DB),
				redis.DialConnectTimeout(dialTimeout),
				redis.DialReadTimeout(ioTimeout),
				redis.DialWriteTimeout(ioTimeout),
			}
			if cfg.Password != "" {
				opts = append(opts, redis.DialPassword(cfg.Password))
			}
			return redis.DialContext(ctx, "tcp", cfg.Addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	s := &Store{pool: pool, prefix: prefix}
	if err := s.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", false, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	v, err := redis.String(redis.DoContext(conn, ctx, "GET", s.key(key)))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "SET", s.key(key), value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "DEL", s.key(key)); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.String(redis.DoContext(conn, ctx, "PING")); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases pooled connections.
func (s *Store) Close() error {
	return s.pool.Close()
}
