// Package metrics holds the Prometheus instruments for offworkd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Roll results that are not failure codes.
const ResultSuccess = "success"

// Metrics groups every instrument the engine records. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Rolls          *prometheus.CounterVec
	RewardsGranted *prometheus.CounterVec
	PointsAwarded  *prometheus.CounterVec
	SessionEvents  *prometheus.CounterVec
	ForcedExits    prometheus.Counter
	AbuseWarnings  prometheus.Counter
	ConfigReloads  *prometheus.CounterVec
	Requests       *prometheus.CounterVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_rolls_total",
				Help: "Total number of rolls by result",
			},
			[]string{"result"},
		),
		RewardsGranted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_rewards_granted_total",
				Help: "Total number of rewards granted by reward id",
			},
			[]string{"reward"},
		),
		PointsAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_points_awarded_total",
				Help: "Points added to players by source",
			},
			[]string{"source"},
		),
		SessionEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_session_events_total",
				Help: "Session lifecycle events by type",
			},
			[]string{"event"},
		),
		ForcedExits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offwork_forced_exits_total",
			Help: "Forced exits detected at session start",
		}),
		AbuseWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offwork_abuse_warnings_total",
			Help: "Forced-exit detections that reached the warning threshold",
		}),
		ConfigReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_config_reloads_total",
				Help: "Config reload attempts by status",
			},
			[]string{"status"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offwork_requests_total",
				Help: "Adapter requests by transport, method and status",
			},
			[]string{"transport", "method", "status"},
		),
	}

	reg.MustRegister(
		m.Rolls,
		m.RewardsGranted,
		m.PointsAwarded,
		m.SessionEvents,
		m.ForcedExits,
		m.AbuseWarnings,
		m.ConfigReloads,
		m.Requests,
	)
	return m
}

// NewRegistry returns a private registry carrying the Go and process
// collectors plus a fresh Metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, New(reg)
}

func (m *Metrics) RecordRoll(result, rewardID string) {
	if m == nil {
		return
	}
	m.Rolls.WithLabelValues(result).Inc()
	if rewardID != "" {
		m.RewardsGranted.WithLabelValues(rewardID).Inc()
	}
}

func (m *Metrics) RecordPoints(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PointsAwarded.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RecordSession(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordForcedExit(thresholdReached bool) {
	if m == nil {
		return
	}
	m.ForcedExits.Inc()
	if thresholdReached {
		m.AbuseWarnings.Inc()
	}
}

func (m *Metrics) RecordConfigReload(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ConfigReloads.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRequest(transport, method, status string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(transport, method, status).Inc()
}
