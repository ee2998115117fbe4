package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/secret-santa-bot/internal/service/telegram"
)

// UpdateSource is the long-polling half of the Bot API.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
}

// UpdateHandler consumes one update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update)
}

// UpdatesPoller feeds Bot API updates to a handler one at a time.
type UpdatesPoller struct {
	source   UpdateSource
	handler  UpdateHandler
	timeout  int
	errPause time.Duration
	logger   zerolog.Logger

	offset int64
}

func NewUpdatesPoller(source UpdateSource, handler UpdateHandler, timeoutSeconds int) *UpdatesPoller {
	return &UpdatesPoller{
		source:   source,
		handler:  handler,
		timeout:  timeoutSeconds,
		errPause: 3 * time.Second,
		logger:   log.Logger.With().Str("component", "updates_poller").Logger(),
	}
}

// Start polls until ctx is done. A failed poll is retried after a pause;
// the offset only moves past updates that were handed to the handler.
func (p *UpdatesPoller) Start(ctx context.Context) {
	p.logger.Info().Int("timeout", p.timeout).Msg("Starting updates poller")
	for {
		if ctx.Err() != nil {
			p.logger.Info().Msg("Stopping updates poller")
			return
		}

		updates, err := p.source.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error().Err(err).Msg("Failed to fetch updates")
				sleepCtx(ctx, p.errPause)
			}
			continue
		}

		for _, u := range updates {
			p.handler.HandleUpdate(ctx, u)
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
		}
	}
}
