package distribution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

// Notifier delivers one message with the retry policy applied.
type Notifier interface {
	Deliver(ctx context.Context, chatID int64, text string) notifications.Result
}

// Locker excludes runs in other processes sharing the same store.
type Locker interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// Report is the outcome of one distribution run.
type Report struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	Participants int
	Pairs        []assignment.Pair
	Mapping      assignment.Mapping
	Fallback     bool
	Outcomes     map[notifications.Outcome]int
	Skipped      int
}

// Empty reports whether the run was a no-op.
func (r *Report) Empty() bool { return len(r.Pairs) == 0 }

// Engine pairs participants, persists the mapping, annotates participant
// records and notifies every giver. Only one run executes at a time.
type Engine struct {
	store    participant.Repository
	notifier Notifier
	shuffle  Shuffler
	now      func() time.Time
	locker   Locker
	metrics  Metrics
	logger   zerolog.Logger

	mu sync.Mutex
}

// Option customises an Engine.
type Option func(*Engine)

func WithShuffler(s Shuffler) Option { return func(e *Engine) { e.shuffle = s } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocker adds a cross-process lock on top of the in-process one.
func WithLocker(l Locker) Option { return func(e *Engine) { e.locker = l } }

func WithMetrics(m Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

func NewEngine(store participant.Repository, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: notifier,
		shuffle:  CryptoShuffler,
		now:      func() time.Time { return time.Now().UTC() },
		metrics:  nopMetrics{},
		logger:   log.Logger.With().Str("component", "distribution").Logger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes one distribution. Fewer than two participants is a no-op
// that returns an empty report. Errors are returned only when the run could
// not start or the mapping could not be persisted; per-recipient problems
// are logged and counted in the report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if !e.mu.TryLock() {
		e.metrics.ObserveRun(StatusRejected, 0, 0)
		return nil, ErrRunInProgress
	}
	defer e.mu.Unlock()

	if e.locker != nil {
		release, ok, err := e.locker.TryAcquire(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeLock, "acquire distribution lock")
		}
		if !ok {
			e.metrics.ObserveRun(StatusRejected, 0, 0)
			return nil, ErrRunInProgress
		}
		defer release()
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
		Outcomes:  map[notifications.Outcome]int{},
	}
	logger := e.logger.With().Str("run_id", report.RunID).Logger()
	start := time.Now()

	status, err := e.run(ctx, logger, report)
	report.Duration = time.Since(start)
	e.metrics.ObserveRun(status, report.Participants, report.Duration)
	if err != nil {
		logger.Error().Err(err).Msg("Distribution failed")
		return nil, err
	}
	return report, nil
}

func (e *Engine) run(ctx context.Context, logger zerolog.Logger, report *Report) (string, error) {
	set, err := e.store.LoadParticipants(ctx)
	if err != nil {
		return StatusFailed, apperrors.NewStorageError("load participants", err)
	}
	report.Participants = len(set)
	if len(set) < 2 {
		logger.Info().Int("participants", len(set)).Msg("Not enough participants for distribution")
		report.Mapping = assignment.Mapping{}
		return StatusSkipped, nil
	}

	pairs, fallback := Derange(set.IDs(), e.shuffle)
	report.Pairs = pairs
	report.Mapping = assignment.FromPairs(pairs)
	report.Fallback = fallback
	if fallback {
		logger.Warn().Int("attempts", MaxShuffleAttempts).Msg("Random derangement not found, using rotation")
	}

	if err := e.store.SaveAssignments(ctx, report.Mapping); err != nil {
		return StatusFailed, apperrors.NewStorageError("save assignments", err)
	}
	logger.Info().Int("pairs", len(pairs)).Msg("Assignments saved")

	annotated := e.annotate(ctx, logger, pairs)
	if annotated == nil {
		annotated = set
	}

	e.notify(ctx, logger, annotated, pairs, report)

	logger.Info().
		Int("delivered", report.Outcomes[notifications.OutcomeDelivered]).
		Int("blocked", report.Outcomes[notifications.OutcomeBlocked]).
		Int("exhausted", report.Outcomes[notifications.OutcomeExhausted]).
		Int("canceled", report.Outcomes[notifications.OutcomeCanceled]).
		Int("skipped", report.Skipped).
		Msg("Distribution completed")
	return StatusCompleted, nil
}

// annotate rewrites the assignment snapshot on every participant from a
// fresh load. It returns the annotated set, or nil when the reload failed.
// A failed save is logged only: the mapping is already persisted.
func (e *Engine) annotate(ctx context.Context, logger zerolog.Logger, pairs []assignment.Pair) participant.Set {
	set, err := e.store.LoadParticipants(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Reload before annotation failed, participant records not updated")
		return nil
	}

	for _, p := range set {
		p.Assigned = nil
	}

	at := e.now()
	for _, pair := range pairs {
		giver, ok := set[pair.GiverID]
		if !ok {
			logger.Warn().Int64("giver", pair.GiverID).Msg("Giver no longer registered, not annotated")
			continue
		}
		recipient, ok := set[pair.RecipientID]
		if !ok {
			logger.Warn().Int64("giver", pair.GiverID).Int64("recipient", pair.RecipientID).Msg("Recipient no longer registered, giver not annotated")
			continue
		}
		giver.Assigned = recipient.Snapshot(at)
	}

	if err := e.store.SaveParticipants(ctx, set); err != nil {
		logger.Error().Err(err).Msg("Annotated participants not saved")
	}
	return set
}

func (e *Engine) notify(ctx context.Context, logger zerolog.Logger, set participant.Set, pairs []assignment.Pair, report *Report) {
	for _, pair := range pairs {
		recipient, ok := set[pair.RecipientID]
		if !ok {
			logger.Warn().Int64("giver", pair.GiverID).Int64("recipient", pair.RecipientID).Msg("Recipient not found, giver not notified")
			report.Skipped++
			continue
		}

		res := e.notifier.Deliver(ctx, pair.GiverID, notifications.BuildAssignmentMessage(recipient))
		report.Outcomes[res.Outcome]++
		e.metrics.ObserveDelivery(res.Outcome, res.Attempts)
		logger.Debug().Int64("giver", pair.GiverID).Str("outcome", string(res.Outcome)).Int("attempts", res.Attempts).Msg("Giver notified")
	}
}
