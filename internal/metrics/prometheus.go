package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

// Collector exports distribution and bot activity to Prometheus.
type Collector struct {
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	lastParticipants prometheus.Gauge
	deliveries       *prometheus.CounterVec
	attempts         prometheus.Histogram
	updates          *prometheus.CounterVec
}

var _ distribution.Metrics = (*Collector)(nil)

// NewPrometheus creates and registers the collector.
//
// reg defaults to prometheus.DefaultRegisterer and namespace to "santa".
func NewPrometheus(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "santa"
	}

	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "runs_total",
			Help:      "Distribution runs by final status (completed, skipped, failed, rejected).",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "run_duration_seconds",
			Help:      "Wall time of distribution runs that got past the lock.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastParticipants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "distribution",
			Name:      "last_run_participants",
			Help:      "Participants seen by the most recent run.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "messages_total",
			Help:      "Assignment notifications by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "attempts",
			Help:      "Send attempts needed per notification.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(c.runs, c.runDuration, c.lastParticipants, c.deliveries, c.attempts, c.updates)
	return c
}

func (c *Collector) ObserveRun(status string, participants int, d time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	if status == distribution.StatusRejected {
		return
	}
	c.runDuration.Observe(d.Seconds())
	c.lastParticipants.Set(float64(participants))
}

func (c *Collector) ObserveDelivery(outcome notifications.Outcome, attempts int) {
	c.deliveries.WithLabelValues(string(outcome)).Inc()
	c.attempts.Observe(float64(attempts))
}

// ObserveUpdate counts one handled bot update.
func (c *Collector) ObserveUpdate(kind string) {
	c.updates.WithLabelValues(kind).Inc()
}
