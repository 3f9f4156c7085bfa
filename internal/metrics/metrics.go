// Package metrics exposes Prometheus metrics for investigations, fed by
// lifecycle hooks and by wrapping the reasoning client.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/llm"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	AlarmsReceived        *prometheus.CounterVec
	Investigations        *prometheus.CounterVec
	InvestigationDuration prometheus.Histogram
	Iterations            prometheus.Histogram
	ToolInvocations       *prometheus.CounterVec
	ToolDuration          *prometheus.HistogramVec
	LLMRequests           *prometheus.CounterVec
	LLMRequestDuration    *prometheus.HistogramVec
	LLMTokens             *prometheus.CounterVec
	ReportsStored         prometheus.Counter
	Notifications         *prometheus.CounterVec
}

// New creates the metric set with Go runtime and process collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		AlarmsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_alarms_received_total",
			Help: "Alarm events accepted for investigation",
		}, []string{"state"}),

		Investigations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_investigations_total",
			Help: "Completed investigations by terminal status",
		}, []string{"status"}),

		InvestigationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "alarmhound_investigation_duration_seconds",
			Help:    "Investigation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17min
		}),

		Iterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "alarmhound_investigation_iterations",
			Help:    "Reasoning service calls per investigation",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),

		ToolInvocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_tool_invocations_total",
			Help: "Capability invocations by tool and result status",
		}, []string{"tool", "status"}),

		ToolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alarmhound_tool_duration_seconds",
			Help:    "Capability invocation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"tool"}),

		LLMRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_llm_requests_total",
			Help: "Reasoning service requests by provider and status",
		}, []string{"provider", "status"}),

		LLMRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alarmhound_llm_request_duration_seconds",
			Help:    "Reasoning service request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		}, []string{"provider"}),

		LLMTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_llm_tokens_total",
			Help: "Tokens consumed by type",
		}, []string{"provider", "type"}),

		ReportsStored: f.NewCounter(prometheus.CounterOpts{
			Name: "alarmhound_reports_stored_total",
			Help: "Reports persisted to the store",
		}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alarmhound_notifications_total",
			Help: "Report deliveries by notifier and status",
		}, []string{"notifier", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Attach subscribes the collectors to lifecycle hooks.
func (m *Metrics) Attach(hm *hooks.Manager) {
	hm.On(hooks.EventAlarmReceived, "metrics", func(_ context.Context, p hooks.Payload) error {
		m.AlarmsReceived.WithLabelValues(str(p.Data["state"])).Inc()
		return nil
	})
	hm.On(hooks.EventToolInvoked, "metrics", func(_ context.Context, p hooks.Payload) error {
		tool := str(p.Data["tool"])
		m.ToolInvocations.WithLabelValues(tool, str(p.Data["status"])).Inc()
		m.ToolDuration.WithLabelValues(tool).Observe(num(p.Data["durationMs"]) / 1000)
		return nil
	})
	hm.On(hooks.EventInvestigationFinished, "metrics", func(_ context.Context, p hooks.Payload) error {
		m.Investigations.WithLabelValues(str(p.Data["status"])).Inc()
		m.InvestigationDuration.Observe(num(p.Data["durationMs"]) / 1000)
		m.Iterations.Observe(num(p.Data["iterations"]))
		return nil
	})
	hm.On(hooks.EventReportStored, "metrics", func(_ context.Context, _ hooks.Payload) error {
		m.ReportsStored.Inc()
		return nil
	})
	hm.On(hooks.EventReportNotified, "metrics", func(_ context.Context, p hooks.Payload) error {
		m.Notifications.WithLabelValues(str(p.Data["notifier"]), str(p.Data["status"])).Inc()
		return nil
	})
}

// InstrumentClient wraps c so every Converse call is counted and timed.
func (m *Metrics) InstrumentClient(c llm.Client) llm.Client {
	return &instrumentedClient{Client: c, m: m}
}

type instrumentedClient struct {
	llm.Client
	m *Metrics
}

func (c *instrumentedClient) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	provider := c.Client.Name()
	start := time.Now()
	resp, err := c.Client.Converse(ctx, req)
	c.m.LLMRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		c.m.LLMRequests.WithLabelValues(provider, "error").Inc()
		return nil, err
	}
	c.m.LLMRequests.WithLabelValues(provider, "success").Inc()
	if resp != nil {
		c.m.LLMTokens.WithLabelValues(provider, "input").Add(float64(resp.Usage.InputTokens))
		c.m.LLMTokens.WithLabelValues(provider, "output").Add(float64(resp.Usage.OutputTokens))
	}
	return resp, nil
}

func str(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "unknown"
}

func num(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
