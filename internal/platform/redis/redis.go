package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultPingTimeout = 3 * time.Second

// Options selects the Redis node that holds participants, assignments, the
// run lock and the trigger stream.
type Options struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the startup ping and readiness checks.
	PingTimeout time.Duration
	Logger      *zerolog.Logger
}

// Client is the shared connection. Stores and workers use the embedded
// go-redis client directly.
type Client struct {
	*redis.Client
	addr        string
	pingTimeout time.Duration
	logger      zerolog.Logger
}

// Open connects and pings the node.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("empty redis addr")
	}
	c := &Client{
		Client:      redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}),
		addr:        opts.Addr,
		pingTimeout: opts.PingTimeout,
		logger:      log.Logger.With().Str("component", "redis").Logger(),
	}
	if c.pingTimeout <= 0 {
		c.pingTimeout = defaultPingTimeout
	}
	if opts.Logger != nil {
		c.logger = *opts.Logger
	}
	if err := c.Healthy(ctx); err != nil {
		_ = c.Client.Close()
		return nil, err
	}
	c.logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")
	return c, nil
}

// Healthy pings the node within the configured timeout.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.addr, err)
	}
	return nil
}

// RunLock returns a lock under key that shares this client's logger.
func (c *Client) RunLock(key string, ttl time.Duration) *Lock {
	return NewLock(c.Client, key, ttl).WithLogger(c.logger)
}
