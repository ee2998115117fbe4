package distribution

import (
	"time"

	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

// Run statuses reported to Metrics.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// Metrics receives run and delivery observations.
type Metrics interface {
	ObserveRun(status string, participants int, d time.Duration)
	ObserveDelivery(outcome notifications.Outcome, attempts int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(string, int, time.Duration)     {}
func (nopMetrics) ObserveDelivery(notifications.Outcome, int) {}
