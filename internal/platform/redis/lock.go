package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const releaseTimeout = 5 * time.Second

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lock stored under one key. The TTL bounds how
// long a crashed holder can block other processes.
type Lock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewLock(client redis.UniversalClient, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl, logger: log.Logger}
}

// WithLogger sets the logger used for release failures.
func (l *Lock) WithLogger(logger zerolog.Logger) *Lock {
	l.logger = logger
	return l
}

// TryAcquire returns a release func when the lock was free, or ok=false
// when another holder has it.
func (l *Lock) TryAcquire(ctx context.Context) (release func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() { l.release(token) }, true, nil
}

func (l *Lock) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	switch {
	case err != nil:
		l.logger.Warn().Err(err).Str("key", l.key).Dur("ttl", l.ttl).
			Msg("Failed to release distribution lock, it stays held until the TTL expires")
	case deleted == 0:
		l.logger.Warn().Str("key", l.key).Msg("Distribution lock expired before release")
	}
}
