// Package domain defines the alarm intake record shared by the investigation
// pipeline.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidEvent is wrapped by every intake parsing failure.
var ErrInvalidEvent = errors.New("invalid event")

// AlarmState is a CloudWatch alarm state.
type AlarmState string

const (
	StateOK               AlarmState = "OK"
	StateAlarm            AlarmState = "ALARM"
	StateInsufficientData AlarmState = "INSUFFICIENT_DATA"
)

// ParseAlarmState validates s as a known alarm state.
func ParseAlarmState(s string) (AlarmState, error) {
	switch st := AlarmState(s); st {
	case StateOK, StateAlarm, StateInsufficientData:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown alarm state %q", ErrInvalidEvent, s)
}

// Alarm is the normalized record of one alarm state transition. The metric
// triple is optional; composite and expression alarms carry none.
type Alarm struct {
	Name          string            `json:"alarmName"`
	AccountID     string            `json:"accountId"`
	Region        string            `json:"region"`
	State         AlarmState        `json:"state"`
	PreviousState AlarmState        `json:"previousState"`
	Reason        string            `json:"reason"`
	Namespace     string            `json:"namespace,omitempty"`
	MetricName    string            `json:"metricName,omitempty"`
	Dimensions    map[string]string `json:"dimensions,omitempty"`
	Raw           []byte            `json:"-"`
}

// HasMetric reports whether the alarm names a single metric.
func (a Alarm) HasMetric() bool {
	return a.Namespace != "" || a.MetricName != ""
}

// FormatDimensions renders dimensions as "{Key: value, ...}" with sorted keys.
// An empty set renders as "{}".
func FormatDimensions(dims map[string]string) string {
	if len(dims) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + dims[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseEventBridge parses a "CloudWatch Alarm State Change" EventBridge event.
func ParseEventBridge(raw []byte) (Alarm, error) {
	if !gjson.ValidBytes(raw) {
		return Alarm{}, fmt.Errorf("%w: malformed JSON", ErrInvalidEvent)
	}
	ev := gjson.ParseBytes(raw)

	name := ev.Get("detail.alarmName")
	if !name.Exists() || name.String() == "" {
		return Alarm{}, fmt.Errorf("%w: missing required fields", ErrInvalidEvent)
	}

	account := ev.Get("account").String()
	region := ev.Get("region").String()
	if account == "" || region == "" {
		return Alarm{}, fmt.Errorf("%w: missing account or region", ErrInvalidEvent)
	}

	state, err := ParseAlarmState(ev.Get("detail.state.value").String())
	if err != nil {
		return Alarm{}, err
	}

	prev := StateOK
	if v := ev.Get("detail.previousState.value"); v.Exists() {
		if prev, err = ParseAlarmState(v.String()); err != nil {
			return Alarm{}, err
		}
	}

	a := Alarm{
		Name:          name.String(),
		AccountID:     account,
		Region:        region,
		State:         state,
		PreviousState: prev,
		Reason:        ev.Get("detail.state.reason").String(),
		Raw:           raw,
	}

	metric := ev.Get("detail.configuration.metrics.0.metricStat.metric")
	if metric.Exists() {
		a.Namespace = metric.Get("namespace").String()
		a.MetricName = metric.Get("name").String()
		if dims := metric.Get("dimensions"); dims.IsObject() {
			a.Dimensions = make(map[string]string)
			dims.ForEach(func(k, v gjson.Result) bool {
				a.Dimensions[k.String()] = v.String()
				return true
			})
		}
	}

	return a, nil
}
