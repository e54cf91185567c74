package metrics

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveTick(20 * time.Millisecond)
	m.ObserveTick(30 * time.Millisecond)
	m.Skip(SkipCooldown)
	m.Skip(SkipSpread)
	m.Skip(SkipSpread)
	m.Order("buy", true)
	m.Order("sell", false)
	m.EvaluationFailed("gateway")
	m.Risk(-1.5, -0.5, 2, 1)
	m.Strength(5.0 / 7.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedTicks.WithLabelValues(SkipSpread)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedTicks.WithLabelValues(SkipCooldown)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("buy", "filled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("sell", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationErrors.WithLabelValues("gateway")))
	assert.Equal(t, -1.5, testutil.ToFloat64(m.RealizedPnL))
	assert.Equal(t, -0.5, testutil.ToFloat64(m.DailyPnL))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConsecutiveLosses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenPositions))
	assert.InDelta(t, 5.0/7.0, testutil.ToFloat64(m.SignalStrength), 1e-12)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTick(time.Second)
		m.Skip(SkipCooldown)
		m.Order("buy", true)
		m.EvaluationFailed("x")
		m.Risk(1, 1, 1, 1)
		m.Strength(1)
	})
}

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveTick(time.Millisecond)

	health := NewHealthStatus("DOGEUSDT", time.Minute)
	srv := httptest.NewServer(NewServer(":0", reg, health).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trader_ticks_total 1")

	status := getHealth(t, srv.URL)
	assert.Equal(t, "starting", status["status"])

	health.RecordTick(time.Now(), errors.New("exchange fetch candles: timeout"))
	status = getHealth(t, srv.URL)
	assert.Equal(t, "degraded", status["status"])
	assert.Equal(t, "exchange fetch candles: timeout", status["last_error"])

	health.RecordTick(time.Now(), nil)
	assert.Equal(t, "healthy", getHealth(t, srv.URL)["status"])

	health.RecordTick(time.Now().Add(-time.Hour), nil)
	assert.Equal(t, "stale", getHealth(t, srv.URL)["status"])
}

func getHealth(t *testing.T, base string) map[string]string {
	t.Helper()
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
