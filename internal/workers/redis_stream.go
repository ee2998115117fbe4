package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
)

const (
	StreamKey     = "santa:events"
	ConsumerGroup = "santa_bot_consumers"

	// EventDistribute asks the worker to run a distribution.
	EventDistribute = "distribute"
)

// Distributor runs one distribution.
type Distributor interface {
	Run(ctx context.Context) (*distribution.Report, error)
}

// RedisStreamWorker consumes trigger events published by other services
// (an admin panel, a cron job) on a Redis stream.
type RedisStreamWorker struct {
	rdb         goredis.UniversalClient
	distributor Distributor
	consumer    string
	block       time.Duration
	logger      zerolog.Logger
}

func NewRedisStreamWorker(rdb goredis.UniversalClient, distributor Distributor, consumer string) *RedisStreamWorker {
	if consumer == "" {
		consumer = "santa_worker_1"
	}
	return &RedisStreamWorker{
		rdb:         rdb,
		distributor: distributor,
		consumer:    consumer,
		block:       5 * time.Second,
		logger:      log.Logger.With().Str("component", "stream_worker").Logger(),
	}
}

// ensureGroup creates the consumer group. Only events added after the group
// exists are delivered.
func (w *RedisStreamWorker) ensureGroup(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		w.logger.Error().Err(err).Msg("Error creating consumer group")
	}
}

// Start listens to the stream until ctx is done.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	w.ensureGroup(ctx)
	w.logger.Info().Str("stream", StreamKey).Str("consumer", w.consumer).Msg("Starting Redis stream worker")

	for {
		if ctx.Err() != nil {
			w.logger.Info().Msg("Stopping Redis stream worker")
			return
		}

		entries, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    ConsumerGroup,
			Consumer: w.consumer,
			Streams:  []string{StreamKey, ">"},
			Count:    1,
			Block:    w.block,
		}).Result()
		if err != nil {
			if !errors.Is(err, goredis.Nil) && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("Error reading from stream")
				sleepCtx(ctx, time.Second)
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.processMessage(ctx, msg.ID, msg.Values)
				if err := w.rdb.XAck(ctx, StreamKey, ConsumerGroup, msg.ID).Err(); err != nil {
					w.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to ack stream entry")
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, id string, values map[string]interface{}) {
	eventType, _ := values["type"].(string)
	logger := w.logger.With().Str("id", id).Str("type", eventType).Logger()

	if eventType != EventDistribute {
		logger.Debug().Msg("Ignoring stream event")
		return
	}

	requestedBy, _ := values["requested_by"].(string)
	logger.Info().Str("requested_by", requestedBy).Msg("Processing distribute event")

	report, err := w.distributor.Run(ctx)
	switch {
	case errors.Is(err, distribution.ErrRunInProgress):
		logger.Warn().Msg("Distribution already running, event dropped")
	case err != nil:
		logger.Error().Err(err).Msg("Distribution from stream event failed")
	default:
		logger.Info().Str("run_id", report.RunID).Int("pairs", len(report.Pairs)).Msg("Distribution from stream event completed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
