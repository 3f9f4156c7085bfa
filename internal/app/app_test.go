package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/domain"
	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/llm"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/report"
	"github.com/soyeahso/alarmhound/internal/store"
)

const highCPUEvent = `{
  "account": "123456789012",
  "region": "us-east-1",
  "detail": {
    "alarmName": "HighCPU",
    "state": {"value": "ALARM", "reason": "Threshold Crossed"},
    "previousState": {"value": "OK"},
    "configuration": {"metrics": [{"metricStat": {"metric": {
      "namespace": "AWS/EC2",
      "name": "CPUUtilization",
      "dimensions": {"InstanceId": "i-0abc"}
    }}}]}
  }
}`

var fixedNow = time.Date(2026, 1, 29, 10, 5, 0, 0, time.UTC)

func silentLog() *logging.Logger { return logging.New(nil, "silent") }

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Investigator.MaxIterations = 5
	return cfg
}

func metricsCapability(calls *atomic.Int32) capability.Capability {
	return capability.Func{
		Desc: capability.Descriptor{Name: "get_cloudwatch_metrics", Description: "metrics", Schema: map[string]any{"type": "object"}},
		Fn: func(context.Context, map[string]any) (capability.Payload, error) {
			calls.Add(1)
			return capability.Success(map[string]any{"datapoints": 12}), nil
		},
	}
}

func newStore(t *testing.T) *store.ReportStore {
	t.Helper()
	db, err := store.Open(":memory:", silentLog())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewReportStore(db)
}

type fakeNotifier struct {
	err     error
	reports []report.Report
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Notify(_ context.Context, r report.Report) error {
	f.reports = append(f.reports, r)
	return f.err
}

func TestHandle(t *testing.T) {
	var calls atomic.Int32
	client := llm.NewScriptedClient(
		llm.ToolRequest(llm.ToolUseBlock("t1", "get_cloudwatch_metrics", map[string]any{"namespace": "AWS/EC2"})),
		llm.FinalAnswer("Root cause: runaway cron job"),
	)
	reports := newStore(t)
	notifier := &fakeNotifier{}
	hm := hooks.NewManager(silentLog())
	var events []string
	hm.OnAll("test", func(_ context.Context, p hooks.Payload) error {
		events = append(events, p.Event)
		return nil
	})

	var regions []string
	svc := New(testConfig(), Deps{
		Client: client,
		Catalogs: func(_ context.Context, region string) (*capability.Catalog, error) {
			regions = append(regions, region)
			return capability.NewCatalog(metricsCapability(&calls)), nil
		},
		Hooks:    hm,
		Reports:  reports,
		Notifier: notifier,
		Now:      func() time.Time { return fixedNow },
	}, silentLog())

	r, err := svc.Handle(context.Background(), []byte(highCPUEvent))
	require.NoError(t, err)
	assert.Equal(t, "HighCPU", r.AlarmName)
	assert.Equal(t, "Root cause: runaway cron job", r.Analysis)
	assert.Equal(t, "answered", r.Outcome)
	assert.Equal(t, 1, r.ToolCalls)
	assert.Equal(t, fixedNow, r.Timestamp)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"us-east-1"}, regions)

	stored, err := reports.GetReport(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Analysis, stored.Analysis)
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, r.ID, notifier.reports[0].ID)

	assert.Equal(t, []string{
		hooks.EventAlarmReceived,
		hooks.EventInvestigationStarted,
		hooks.EventToolInvoked,
		hooks.EventInvestigationFinished,
		hooks.EventReportStored,
	}, events)

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].System, "HighCPU")
	require.Len(t, reqs[0].Tools, 1)
}

func TestHandleCachesCatalogPerRegion(t *testing.T) {
	var built int
	svc := New(testConfig(), Deps{
		Client: llm.NewScriptedClient(llm.FinalAnswer("done")),
		Catalogs: func(context.Context, string) (*capability.Catalog, error) {
			built++
			return capability.NewCatalog(), nil
		},
	}, silentLog())

	for i := 0; i < 3; i++ {
		_, err := svc.Handle(context.Background(), []byte(highCPUEvent))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, built)

	_, err := svc.Catalog(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, 2, built)
}

func TestHandleInvalidEvent(t *testing.T) {
	client := llm.NewScriptedClient(llm.FinalAnswer("unused"))
	svc := New(testConfig(), Deps{Client: client}, silentLog())

	_, err := svc.Handle(context.Background(), []byte(`{"invalid": "event"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
	assert.Empty(t, client.Requests())
}

func TestHandleClientError(t *testing.T) {
	client := &llm.MockClient{
		ProviderName: "mock",
		ConverseFunc: func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, &llm.ProviderError{Provider: "mock", Message: "throttled", Code: 429}
		},
	}
	reports := newStore(t)
	svc := New(testConfig(), Deps{Client: client, Reports: reports}, silentLog())

	_, err := svc.Handle(context.Background(), []byte(highCPUEvent))
	require.Error(t, err)
	var pe *llm.ProviderError
	assert.ErrorAs(t, err, &pe)

	n, err := reports.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleNotificationFailureIsNotFatal(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := New(testConfig(), Deps{
		Client:   llm.NewScriptedClient(llm.FinalAnswer("done")),
		Notifier: notifier,
	}, silentLog())

	r, err := svc.Handle(context.Background(), []byte(highCPUEvent))
	require.NoError(t, err)
	assert.Equal(t, "done", r.Analysis)
	assert.Len(t, notifier.reports, 1)
}

func TestRespond(t *testing.T) {
	svc := New(testConfig(), Deps{Client: llm.NewScriptedClient(llm.FinalAnswer("done"))}, silentLog())

	resp := svc.Respond(context.Background(), []byte(highCPUEvent))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "HighCPU", body["alarm_name"])
	assert.Equal(t, "done", body["analysis"])

	resp = svc.Respond(context.Background(), []byte(`{"invalid": "event"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Contains(t, body, "error")
}

func TestRespondInternalError(t *testing.T) {
	client := &llm.MockClient{
		ProviderName: "mock",
		ConverseFunc: func(context.Context, llm.Request) (*llm.Response, error) {
			return &llm.Response{StopReason: llm.StopEndTurn}, nil
		},
	}
	svc := New(testConfig(), Deps{Client: client}, silentLog())

	resp := svc.Respond(context.Background(), []byte(highCPUEvent))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestClose(t *testing.T) {
	var closed int
	svc := New(testConfig(), Deps{
		Closers: []func() error{
			func() error { closed++; return nil },
			func() error { closed++; return errors.New("busy") },
		},
	}, silentLog())
	assert.Error(t, svc.Close())
	assert.Equal(t, 2, closed)
}
