package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/russross/blackfriday/v2"
)

// Email is a rendered notification message.
type Email struct {
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	ContentType string `json:"content_type"`
}

const emailTemplate = `<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .header { background: #f44336; color: white; padding: 20px; }
        .header.ok { background: #4CAF50; }
        .content { padding: 20px; }
        .metadata { background: #f5f5f5; padding: 15px; margin: 20px 0; }
        .metadata dt { font-weight: bold; }
        h2 { color: #1976D2; border-bottom: 2px solid #1976D2; padding-bottom: 5px; }
        pre { background: #f5f5f5; padding: 10px; overflow-x: auto; }
    </style>
</head>
<body>
    <div class="header{{ if .OK }} ok{{ end }}">
        <h1>Alarm Investigation Report</h1>
        <p>{{ .AlarmName }}</p>
    </div>
    <div class="content">
        <div class="metadata">
            <dl>
                <dt>Account</dt><dd>{{ .AccountID }}</dd>
                <dt>Region</dt><dd>{{ .Region }}</dd>
                <dt>State</dt><dd>{{ .State }} (was {{ .PreviousState }})</dd>
                <dt>Metric</dt><dd>{{ .NamespaceText }} / {{ .MetricText }}</dd>
                <dt>Dimensions</dt><dd>{{ .DimensionsText }}</dd>
                <dt>Reason</dt><dd>{{ .Reason }}</dd>
            </dl>
        </div>
        <div class="analysis">
            {{ .AnalysisHTML }}
        </div>
        <p><small>Generated {{ dateInZone "2006-01-02 15:04:05 MST" .Timestamp "UTC" }}</small></p>
    </div>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Funcs(sprig.HtmlFuncMap()).Parse(emailTemplate))

type emailView struct {
	view
	AnalysisHTML template.HTML
}

// Subject returns the notification subject line for the report.
func Subject(r Report) string {
	return fmt.Sprintf("[%s] Alarm Investigation: %s", r.State, r.AlarmName)
}

// RenderEmail renders the report as an HTML email. Metadata is escaped and the
// analysis is converted from Markdown with raw HTML dropped.
func RenderEmail(r Report) (Email, error) {
	v := emailView{view: newView(r), AnalysisHTML: markdownToHTML(r.Analysis)}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, v); err != nil {
		return Email{}, fmt.Errorf("rendering email report: %w", err)
	}
	return Email{
		Subject:     Subject(r),
		Body:        buf.String(),
		ContentType: "text/html",
	}, nil
}

func markdownToHTML(md string) template.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.SkipHTML | blackfriday.Safelink,
	})
	out := blackfriday.Run([]byte(md), blackfriday.WithRenderer(renderer))
	return template.HTML(out)
}
