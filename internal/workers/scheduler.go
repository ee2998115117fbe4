package workers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/secret-santa-bot/internal/config"
	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
)

// Scheduler runs one distribution at DISTRIBUTION_DATETIME.
type Scheduler struct {
	distributor Distributor
	loc         *time.Location
	now         func() time.Time
	startDelay  time.Duration
	logger      zerolog.Logger
}

func NewScheduler(distributor Distributor, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		distributor: distributor,
		loc:         loc,
		now:         time.Now,
		startDelay:  time.Second,
		logger:      log.Logger.With().Str("component", "scheduler").Logger(),
	}
}

// Delay returns how long to wait before running at the given time. A time
// that already passed runs after a short start delay so the bot is fully up.
func (s *Scheduler) Delay(at time.Time) time.Duration {
	d := at.Sub(s.now())
	if d <= 0 {
		return s.startDelay
	}
	return d
}

// Schedule parses raw and arms a one-shot timer. It returns false when raw
// is empty or unparsable, in which case nothing is scheduled. The returned
// channel is closed once the timer fired and the run returned, or ctx ended.
func (s *Scheduler) Schedule(ctx context.Context, raw string) (<-chan struct{}, bool) {
	if raw == "" {
		s.logger.Warn().Msg("DISTRIBUTION_DATETIME is not set, distribution not scheduled")
		return nil, false
	}
	at, err := config.ParseDistributionTime(raw, s.loc)
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not parse DISTRIBUTION_DATETIME, distribution not scheduled")
		return nil, false
	}

	delay := s.Delay(at)
	s.logger.Info().Time("at", at).Dur("in", delay).Msg("Distribution scheduled")

	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduled distribution cancelled")
			return
		case <-t.C:
		}

		report, err := s.distributor.Run(ctx)
		switch {
		case errors.Is(err, distribution.ErrRunInProgress):
			s.logger.Warn().Msg("Scheduled distribution skipped, another run is in progress")
		case err != nil:
			s.logger.Error().Err(err).Msg("Scheduled distribution failed")
		default:
			s.logger.Info().Str("run_id", report.RunID).Int("pairs", len(report.Pairs)).Msg("Scheduled distribution finished")
		}
	}()
	return done, true
}
