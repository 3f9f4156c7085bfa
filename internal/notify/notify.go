// Package notify delivers finished reports to people: SNS topics, Gmail and IRC.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/report"
)

// Notifier delivers a report to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, r report.Report) error
}

// Multi fans a report out to every notifier. A failing notifier does not stop
// the others; all failures are joined into the returned error.
type Multi struct {
	notifiers []Notifier
	hooks     *hooks.Manager
	log       *logging.Logger
}

// NewMulti creates a fan-out notifier. hm may be nil.
func NewMulti(log *logging.Logger, hm *hooks.Manager, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, hooks: hm, log: log.Sub("notify")}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of configured notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

// Notify delivers r to every notifier in order.
func (m *Multi) Notify(ctx context.Context, r report.Report) error {
	var errs []error
	for _, n := range m.notifiers {
		status := "success"
		if err := n.Notify(ctx, r); err != nil {
			status = "error"
			m.log.Warn().Err(err).Str("notifier", n.Name()).Str("report", r.ID).Msg("notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		} else {
			m.log.Info().Str("notifier", n.Name()).Str("report", r.ID).Msg("report delivered")
		}
		m.hooks.Emit(ctx, hooks.EventReportNotified, map[string]any{
			"notifier": n.Name(),
			"report":   r.ID,
			"status":   status,
		})
	}
	return errors.Join(errs...)
}

// Close releases notifiers that hold connections.
func (m *Multi) Close() error {
	var errs []error
	for _, n := range m.notifiers {
		if c, ok := n.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
