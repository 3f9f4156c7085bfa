package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/report"
)

func sampleReport() report.Report {
	ns, metric := "AWS/EC2", "CPUUtilization"
	return report.Report{
		ID:            "rep-1",
		AlarmName:     "HighCPU",
		AccountID:     "123456789012",
		Region:        "us-east-1",
		State:         "ALARM",
		PreviousState: "OK",
		Reason:        "Threshold Crossed",
		Namespace:     &ns,
		MetricName:    &metric,
		Dimensions:    map[string]string{"InstanceId": "i-0abc"},
		Analysis:      "## Root cause\n\nA runaway **cron** job.",
		Outcome:       "answered",
		Iterations:    2,
		ToolCalls:     1,
		Timestamp:     time.Date(2026, 1, 29, 10, 5, 0, 0, time.UTC),
	}
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSNotifier(t *testing.T) {
	api := &fakeSNS{}
	n := NewSNSNotifier(api, "arn:aws:sns:us-east-1:123456789012:alarms")

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:alarms", *in.TopicArn)
	assert.Equal(t, "[ALARM] Alarm Investigation: HighCPU", *in.Subject)
	assert.Contains(t, *in.Message, "<strong>cron</strong>")
}

func TestSNSNotifierError(t *testing.T) {
	n := NewSNSNotifier(&fakeSNS{err: errors.New("denied")}, "arn")
	err := n.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestSNSSubject(t *testing.T) {
	assert.Equal(t, "a b", snsSubject("a\nb"))

	long := strings.Repeat("x", 150)
	assert.Len(t, snsSubject(long), maxSNSSubject)

	// 99 ASCII bytes followed by a two-byte rune must not be split.
	mixed := strings.Repeat("x", 99) + "é" + "tail"
	got := snsSubject(mixed)
	assert.Equal(t, strings.Repeat("x", 99), got)
}

type fakeGmail struct {
	raw []string
	err error
}

func (f *fakeGmail) Send(_ context.Context, raw string) error {
	f.raw = append(f.raw, raw)
	return f.err
}

func TestGmailNotifier(t *testing.T) {
	sender := &fakeGmail{}
	n := NewGmailNotifier(sender, "hound@example.com", []string{"ops@example.com", "sre@example.com"})

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, sender.raw, 1)

	decoded, err := base64.URLEncoding.DecodeString(sender.raw[0])
	require.NoError(t, err)
	msg := string(decoded)
	assert.Contains(t, msg, "From: hound@example.com\r\n")
	assert.Contains(t, msg, "To: ops@example.com, sre@example.com\r\n")
	assert.Contains(t, msg, "Subject: [ALARM] Alarm Investigation: HighCPU\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	assert.Contains(t, msg, "<strong>cron</strong>")
}

func TestGmailNotifierError(t *testing.T) {
	n := NewGmailNotifier(&fakeGmail{err: errors.New("quota")}, "", []string{"ops@example.com"})
	err := n.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gmail send")
}

type recordingSender struct {
	mu    sync.Mutex
	lines map[string][]string
}

func (r *recordingSender) Message(target, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lines == nil {
		r.lines = map[string][]string{}
	}
	r.lines[target] = append(r.lines[target], line)
	return nil
}

func TestIRCNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewIRCNotifierWithSender([]string{"#ops", "#sre"}, sender, logging.New(nil, "silent"))

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	for _, ch := range []string{"#ops", "#sre"} {
		lines := sender.lines[ch]
		require.Len(t, lines, 3, ch)
		assert.Equal(t, "[ALARM] HighCPU in us-east-1 (account 123456789012): OK -> ALARM", lines[0])
		assert.Equal(t, "Reason: Threshold Crossed", lines[1])
		assert.Equal(t, "Analysis (answered, 1 tool calls): ## Root cause A runaway **cron** job.", lines[2])
	}
}

func TestSummaryTruncatesAnalysis(t *testing.T) {
	r := sampleReport()
	r.Analysis = strings.Repeat("word ", 500)
	s := Summary(r)
	assert.True(t, strings.HasSuffix(s, "..."))
	for _, line := range splitMessage(s, ircMaxLine) {
		assert.LessOrEqual(t, len(line), ircMaxLine)
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitMessage("a\n\nb", 10))
	assert.Equal(t, []string{"abc", "de"}, splitMessage("abcde", 3))
	assert.Equal(t, []string{""}, splitMessage("", 3))
}

type stubNotifier struct {
	name  string
	err   error
	calls int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(context.Context, report.Report) error {
	s.calls++
	return s.err
}

func TestMultiContinuesPastFailures(t *testing.T) {
	log := logging.New(nil, "silent")
	hm := hooks.NewManager(log)
	var events []map[string]any
	hm.On(hooks.EventReportNotified, "test", func(_ context.Context, p hooks.Payload) error {
		events = append(events, p.Data)
		return nil
	})

	a := &stubNotifier{name: "a", err: errors.New("boom")}
	b := &stubNotifier{name: "b"}
	m := NewMulti(log, hm, a, b)
	assert.Equal(t, 2, m.Len())

	err := m.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0]["notifier"])
	assert.Equal(t, "error", events[0]["status"])
	assert.Equal(t, "b", events[1]["notifier"])
	assert.Equal(t, "success", events[1]["status"])
}

func TestMultiEmpty(t *testing.T) {
	m := NewMulti(logging.New(nil, "silent"), nil)
	assert.NoError(t, m.Notify(context.Background(), sampleReport()))
	assert.NoError(t, m.Close())
}
