package notifications

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-builders/secret-santa-bot/internal/config"
	"github.com/open-builders/secret-santa-bot/internal/domain/delivery"
)

// Sender delivers one text message to one chat. Failures should be
// *delivery.SendError values; anything else is handled as unexpected.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy bounds retries for a single recipient.
type Policy struct {
	BaseDelay  time.Duration
	MaxRetries int
	Backoff    float64
}

// PolicyFromConfig converts the delivery settings.
func PolicyFromConfig(c config.Delivery) Policy {
	return Policy{BaseDelay: c.BaseDelay(), MaxRetries: c.MaxSendRetries, Backoff: c.RetryBackoff}
}

// Outcome is the final state of one delivery.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCanceled  Outcome = "canceled"
)

// Result describes one delivery.
type Result struct {
	Outcome  Outcome
	Attempts int
	LastErr  error
}

// Deliverer sends messages with the retry policy applied per recipient.
type Deliverer struct {
	sender Sender
	policy Policy
	sleep  SleepFunc
	logger zerolog.Logger
}

// DelivererOption customises a Deliverer.
type DelivererOption func(*Deliverer)

func WithSleep(fn SleepFunc) DelivererOption {
	return func(d *Deliverer) { d.sleep = fn }
}

func WithLogger(l zerolog.Logger) DelivererOption {
	return func(d *Deliverer) { d.logger = l }
}

func NewDeliverer(sender Sender, policy Policy, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		sender: sender,
		policy: policy,
		sleep:  Sleep,
		logger: log.Logger.With().Str("component", "delivery").Logger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deliver sends text to chatID. A rate-limit reply waits the server-given
// duration; transient and unexpected failures wait the local delay, which
// grows by the backoff factor after every retry. A blocked recipient is
// given up on immediately. At most MaxRetries+1 sends are made.
func (d *Deliverer) Deliver(ctx context.Context, chatID int64, text string) Result {
	var res Result
	attempt := 0
	delay := d.policy.BaseDelay

	for attempt <= d.policy.MaxRetries {
		if ctx.Err() != nil {
			res.Outcome = OutcomeCanceled
			return res
		}

		err := d.sender.SendMessage(ctx, chatID, text)
		res.Attempts++
		if err == nil {
			res.Outcome = OutcomeDelivered
			res.LastErr = nil
			return res
		}
		res.LastErr = err

		kind, retryAfter := delivery.Classify(err)
		var wait time.Duration
		switch kind {
		case delivery.KindBlocked:
			d.logger.Info().Int64("chat_id", chatID).Err(err).Msg("Cannot send: recipient blocked the bot")
			res.Outcome = OutcomeBlocked
			return res
		case delivery.KindRateLimited:
			wait = retryAfter
			d.logger.Warn().Int64("chat_id", chatID).Dur("retry_after", wait).Int("attempt", attempt).Msg("Rate limited")
		case delivery.KindTransient:
			wait = delay
			d.logger.Warn().Int64("chat_id", chatID).Err(err).Int("attempt", attempt).Msg("Temporary send error")
		default:
			wait = delay
			d.logger.Error().Int64("chat_id", chatID).Err(err).Int("attempt", attempt).Msg("Unexpected send error")
		}

		attempt++
		delay = time.Duration(float64(delay) * d.policy.Backoff)
		if attempt > d.policy.MaxRetries {
			break
		}
		if err := d.sleep(ctx, wait); err != nil {
			res.Outcome = OutcomeCanceled
			return res
		}
	}

	d.logger.Error().Int64("chat_id", chatID).Err(res.LastErr).Int("attempts", res.Attempts).Msg("Giving up on recipient")
	res.Outcome = OutcomeExhausted
	return res
}
