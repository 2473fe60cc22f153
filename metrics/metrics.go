// Package metrics exposes padlock activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	padlock "github.com/goliatone/go-padlock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ padlock.ActivitySink = (*Sink)(nil)

// Sink counts guard activity events.
type Sink struct {
	events     *prometheus.CounterVec
	logins     *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewSink creates a Sink and registers its collectors with reg.
func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padlock_activity_events_total",
			Help: "Guard activity events by type.",
		}, []string{"event"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padlock_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"status", "forced", "remember"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padlock_check_rejections_total",
			Help: "Stored credentials purged during login checks, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(s.events, s.logins, s.rejections)

	return s
}

func (s *Sink) Record(_ context.Context, event padlock.ActivityEvent) error {
	s.events.WithLabelValues(string(event.EventType)).Inc()

	switch event.EventType {
	case padlock.ActivityEventLoginSuccess, padlock.ActivityEventLoginFailure:
		s.logins.WithLabelValues(event.Status.String(), boolLabel(event.Forced), boolLabel(event.Remember)).Inc()
	case padlock.ActivityEventCheckRejected:
		reason, _ := event.Metadata["reason"].(string)
		if reason == "" {
			reason = "unknown"
		}
		s.rejections.WithLabelValues(reason).Inc()
	}

	return nil
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
