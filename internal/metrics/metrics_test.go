package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/llm"
	"github.com/soyeahso/alarmhound/internal/logging"
)

func TestAttachCountsHookEvents(t *testing.T) {
	m := New()
	hm := hooks.NewManager(logging.New(nil, "silent"))
	m.Attach(hm)
	ctx := context.Background()

	hm.Emit(ctx, hooks.EventAlarmReceived, map[string]any{"state": "ALARM"})
	hm.Emit(ctx, hooks.EventToolInvoked, map[string]any{"tool": "describe_ec2_instance", "status": "success", "durationMs": int64(40)})
	hm.Emit(ctx, hooks.EventToolInvoked, map[string]any{"tool": "describe_ec2_instance", "status": "error", "durationMs": int64(10)})
	hm.Emit(ctx, hooks.EventInvestigationFinished, map[string]any{"status": "answered", "iterations": 2, "durationMs": int64(1500)})
	hm.Emit(ctx, hooks.EventReportStored, nil)
	hm.Emit(ctx, hooks.EventReportNotified, map[string]any{"notifier": "sns", "status": "success"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlarmsReceived.WithLabelValues("ALARM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("describe_ec2_instance", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("describe_ec2_instance", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Investigations.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("sns", "success")))
}

func TestInstrumentClient(t *testing.T) {
	m := New()
	ok := m.InstrumentClient(&llm.MockClient{ProviderName: "bedrock", ConverseFunc: func(context.Context, llm.Request) (*llm.Response, error) {
		r := llm.FinalAnswer("x")
		r.Usage = llm.Usage{InputTokens: 100, OutputTokens: 20}
		return r, nil
	}})
	bad := m.InstrumentClient(&llm.MockClient{ProviderName: "anthropic", ConverseFunc: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, errors.New("down")
	}})

	_, err := ok.Converse(context.Background(), llm.Request{})
	require.NoError(t, err)
	_, err = bad.Converse(context.Background(), llm.Request{})
	require.Error(t, err)

	assert.Equal(t, "bedrock", ok.Name())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("bedrock", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("anthropic", "error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.LLMTokens.WithLabelValues("bedrock", "input")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.LLMTokens.WithLabelValues("bedrock", "output")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ReportsStored.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "alarmhound_reports_stored_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
