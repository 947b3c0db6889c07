package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRoll(ResultSuccess, "OFF_WORK")
	m.RecordRoll("insufficient_points", "")
	m.RecordPoints("action", 5)
	m.RecordPoints("action", 0)
	m.RecordSession("start")
	m.RecordForcedExit(true)
	m.RecordForcedExit(false)
	m.RecordConfigReload(false)
	m.RecordRequest("http", "roll", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rolls.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rolls.WithLabelValues("insufficient_points")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RewardsGranted.WithLabelValues("OFF_WORK")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.PointsAwarded.WithLabelValues("action")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ForcedExits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AbuseWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("http", "roll", "ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRoll(ResultSuccess, "x")
		m.RecordPoints("action", 1)
		m.RecordSession("start")
		m.RecordForcedExit(true)
		m.RecordConfigReload(true)
		m.RecordRequest("grpc", "Roll", "ok")
	})
}

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	require.NotNil(t, m)
	m.RecordSession("start")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["offwork_session_events_total"])
	assert.True(t, names["go_goroutines"])
}
