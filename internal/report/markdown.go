package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const markdownTemplate = `# Alarm Investigation: {{ .AlarmName }}

| Field | Value |
|-------|-------|
| Account | {{ .AccountID }} |
| Region | {{ .Region }} |
| State | {{ .State }} (was {{ .PreviousState }}) |
| Metric | {{ .NamespaceText }} / {{ .MetricText }} |
| Dimensions | {{ .DimensionsText }} |
| Reason | {{ .Reason | replace "|" "\\|" }} |

## Analysis

{{ .Analysis | trim }}
{{- if .Partial }}

## Last partial analysis

{{ .Partial | trim }}
{{- end }}

---
_{{ .Outcome | title }} after {{ .Iterations }} {{ if eq .Iterations 1 }}iteration{{ else }}iterations{{ end }} and {{ .ToolCalls }} tool {{ if eq .ToolCalls 1 }}call{{ else }}calls{{ end }}, generated {{ dateInZone "2006-01-02 15:04:05 MST" .Timestamp "UTC" }}._
`

var markdownTmpl = template.Must(template.New("markdown").Funcs(sprig.TxtFuncMap()).Parse(markdownTemplate))

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(r Report) (string, error) {
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, newView(r)); err != nil {
		return "", fmt.Errorf("rendering markdown report: %w", err)
	}
	return buf.String(), nil
}
