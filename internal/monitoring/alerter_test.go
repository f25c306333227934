package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hts-classify/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.5,
		MinClassifications:    10,
	})

	snap := &MetricsSnapshot{
		Classifications: 100,
		Matched:         80,
		Fallbacks:       20,
		FallbackRate:    0.2,
		ReferenceSource: "hts.csv",
		ReferenceRows:   1200,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_FallbackRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.5,
		MinClassifications:    10,
	})

	snap := &MetricsSnapshot{
		Classifications: 20,
		Matched:         4,
		Fallbacks:       16,
		FallbackRate:    0.8,
		ReferenceRows:   1200,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFallbackRate, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "80.0%")
	assert.Contains(t, alerts[0].Message, "16 fallbacks / 20 classifications")
}

func TestAlerter_Evaluate_MinimumClassificationsRequired(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.5,
		MinClassifications:    10,
	})

	snap := &MetricsSnapshot{
		Classifications: 3,
		Fallbacks:       3,
		FallbackRate:    1,
		ReferenceRows:   1200,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_ZeroThresholdDisabled(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	snap := &MetricsSnapshot{
		Classifications: 500,
		Fallbacks:       500,
		FallbackRate:    1,
		ReferenceRows:   1,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_ReferenceUnavailable(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FallbackRateThreshold: 0.5,
		MinClassifications:    10,
	})

	snap := &MetricsSnapshot{
		Classifications: 12,
		Fallbacks:       12,
		FallbackRate:    1,
		ReferenceSource: "https://example.com/hts.csv",
		ReferenceError:  "reference: load https://example.com/hts.csv: circuit breaker is open",
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 2)

	types := make(map[AlertType]bool)
	for _, a := range alerts {
		types[a.Type] = true
	}
	assert.True(t, types[AlertReferenceUnavailable])
	assert.True(t, types[AlertFallbackRate])
	assert.Contains(t, alerts[0].Message, "https://example.com/hts.csv")
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		err := json.NewDecoder(r.Body).Decode(&alert)
		require.NoError(t, err)
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: ts.URL,
	})

	alerts := []Alert{
		{Type: AlertFallbackRate, Severity: "medium", Message: "test alert 1"},
		{Type: AlertReferenceUnavailable, Severity: "high", Message: "test alert 2"},
	}

	sent := a.SendAlerts(context.Background(), alerts)
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFallbackRate, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: "http://example.com",
	})

	assert.Equal(t, 0, a.SendAlerts(context.Background(), nil))
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{
		WebhookURL: ts.URL,
	})

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFallbackRate, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}
