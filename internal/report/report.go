// Package report builds the investigation report record and renders it for
// storage, terminals and email.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/alarmhound/internal/domain"
	"github.com/soyeahso/alarmhound/internal/investigator"
)

// Report is the result of one investigation. Namespace, MetricName and
// Dimensions are null when the alarm names no metric.
type Report struct {
	ID            string            `json:"id"`
	AlarmName     string            `json:"alarm_name"`
	AccountID     string            `json:"account_id"`
	Region        string            `json:"region"`
	State         string            `json:"state"`
	PreviousState string            `json:"previous_state"`
	Reason        string            `json:"reason"`
	Namespace     *string           `json:"namespace"`
	MetricName    *string           `json:"metric_name"`
	Dimensions    map[string]string `json:"dimensions"`
	Analysis      string            `json:"analysis"`
	Outcome       string            `json:"outcome"`
	Partial       string            `json:"partial_analysis,omitempty"`
	Iterations    int               `json:"iterations"`
	ToolCalls     int               `json:"tool_calls"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Build assembles a report from an alarm and the investigation outcome.
func Build(a domain.Alarm, out investigator.Outcome, now time.Time) Report {
	r := Report{
		ID:            uuid.NewString(),
		AlarmName:     a.Name,
		AccountID:     a.AccountID,
		Region:        a.Region,
		State:         string(a.State),
		PreviousState: string(a.PreviousState),
		Reason:        a.Reason,
		Dimensions:    a.Dimensions,
		Analysis:      out.Text,
		Outcome:       string(out.Status),
		Partial:       out.Partial,
		Iterations:    out.Iterations,
		ToolCalls:     out.ToolCalls,
		Timestamp:     now.UTC(),
	}
	if a.Namespace != "" {
		r.Namespace = &a.Namespace
	}
	if a.MetricName != "" {
		r.MetricName = &a.MetricName
	}
	return r
}

// RenderJSON encodes the report as indented JSON.
func RenderJSON(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// view is the flattened, display-ready form the templates render.
type view struct {
	Report
	NamespaceText  string
	MetricText     string
	DimensionsText string
	OK             bool
}

func newView(r Report) view {
	v := view{
		Report:         r,
		NamespaceText:  "N/A",
		MetricText:     "N/A",
		DimensionsText: domain.FormatDimensions(r.Dimensions),
		OK:             r.State == string(domain.StateOK),
	}
	if r.Namespace != nil {
		v.NamespaceText = *r.Namespace
	}
	if r.MetricName != nil {
		v.MetricText = *r.MetricName
	}
	return v
}
