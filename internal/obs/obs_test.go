package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndRecord(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.SetWindowUsage("weightPerMinute", 42, 5000)
	m.IncAdmission("weightPerMinute", "admitted")
	m.IncReconciliation("weightPerMinute")
	m.SetClockOffset(-120)

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawUsage bool
	for _, f := range families {
		if f.GetName() == "panzer_quota_window_usage" {
			sawUsage = true
			require.Equal(t, float64(42), f.Metric[0].GetGauge().GetValue())
		}
	}
	require.True(t, sawUsage, "window usage metric must be registered and observable")
}

func TestNewLoggerProducesAFunctioningLogger(t *testing.T) {
	log := NewLogger("test", 1)
	log.Info("hello", "k", "v")
	log.Error(nil, "boom")
}
