package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/report"
)

// run executes the root command against an isolated home directory.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ALARMHOUND_HOME", home)
	cfgFile, logLevel = "", ""

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func sampleReport() report.Report {
	return report.Report{
		ID:            "rep-1",
		AlarmName:     "HighCPU",
		AccountID:     "123456789012",
		Region:        "us-east-1",
		State:         "ALARM",
		PreviousState: "OK",
		Reason:        "Threshold Crossed",
		Dimensions:    map[string]string{},
		Analysis:      "Root cause: runaway cron job",
		Outcome:       "answered",
		Timestamp:     time.Date(2026, 1, 29, 10, 5, 0, 0, time.UTC),
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "alarmhound "))
}

func TestConfigSetGetPath(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "config", "set", "investigator.maxIterations", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Set investigator.maxIterations = 4")

	out, err = run(t, home, "config", "get", "investigator.maxIterations")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	_, err = run(t, home, "config", "get", "investigator.nope")
	assert.Error(t, err)

	out, err = run(t, home, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(`
gateway:
  auth:
    token: super-secret
notify:
  irc:
    server: irc.example.com
    nick: hound
    password: hunter2
    channels: ["#ops"]
`), 0o600))

	out, err := run(t, home, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "super-secret")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, redactedValue)
	assert.Contains(t, out, "irc.example.com")
}

func TestConfigValidate(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("logging:\n  level: loud\n"), 0o600))
	out, err = run(t, home, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "logging.level")
}

func TestToolsList(t *testing.T) {
	out, err := run(t, t.TempDir(), "tools", "list")
	require.NoError(t, err)
	for _, name := range []string{
		"get_cloudwatch_metrics",
		"describe_ec2_instance",
		"describe_rds_instance",
		"describe_lambda_function",
		"describe_ecs_service",
	} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "describe_droplet")
}

func TestToolsListJSON(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("capabilities:\n  enabled: [describe_ec2_instance]\n"), 0o600))

	out, err := run(t, home, "tools", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "describe_ec2_instance"`)
	assert.NotContains(t, out, "get_cloudwatch_metrics")
}

func TestReportsListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reports.")
}

func TestReportsShowMissing(t *testing.T) {
	_, err := run(t, t.TempDir(), "reports", "show", "nope")
	assert.Error(t, err)
}

func TestInvestigateRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, t.TempDir(), "investigate", "--event", "-", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestWriteReport(t *testing.T) {
	r := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, r, "json"))
	assert.Contains(t, buf.String(), `"alarm_name": "HighCPU"`)

	buf.Reset()
	require.NoError(t, writeReport(&buf, r, "markdown"))
	assert.Contains(t, buf.String(), "Root cause: runaway cron job")

	buf.Reset()
	require.NoError(t, writeReport(&buf, r, "email"))
	assert.True(t, strings.HasPrefix(buf.String(), "Subject: [ALARM] Alarm Investigation: HighCPU\n"))
	assert.Contains(t, buf.String(), "<html")
}

func TestReadEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	b, err := readEvent(path, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	b, err = readEvent("-", strings.NewReader(`{"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(b))

	_, err = readEvent(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, 42, parseValue("42"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, "us-east-1", parseValue("us-east-1"))
}

func TestRedacted(t *testing.T) {
	c := config.Defaults()
	c.Model.APIKey = "sk-123"
	c.Notify.IRC = &config.IRCConfig{Password: "pw"}

	r := redacted(c)
	assert.Equal(t, redactedValue, r.Model.APIKey)
	assert.Equal(t, "", r.Gateway.Auth.Token)
	assert.Equal(t, redactedValue, r.Notify.IRC.Password)
	assert.Equal(t, "pw", c.Notify.IRC.Password)
}

func TestNotifierSummary(t *testing.T) {
	assert.Equal(t, "(none)", notifierSummary(config.NotifyConfig{}))
	assert.Equal(t, "sns, irc", notifierSummary(config.NotifyConfig{
		SNS: &config.SNSConfig{TopicARN: "arn"},
		IRC: &config.IRCConfig{},
	}))
}
