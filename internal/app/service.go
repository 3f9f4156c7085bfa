// Package app runs the intake pipeline: parse an alarm event, investigate it,
// then persist and deliver the report.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/config"
	"github.com/soyeahso/alarmhound/internal/domain"
	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/investigator"
	"github.com/soyeahso/alarmhound/internal/llm"
	"github.com/soyeahso/alarmhound/internal/logging"
	"github.com/soyeahso/alarmhound/internal/metrics"
	"github.com/soyeahso/alarmhound/internal/notify"
	"github.com/soyeahso/alarmhound/internal/report"
	"github.com/soyeahso/alarmhound/internal/store"
)

// CatalogFactory builds the diagnostic catalog for one AWS region.
type CatalogFactory func(ctx context.Context, region string) (*capability.Catalog, error)

// Deps are the collaborators of a Service. Reports and Notifier may be nil.
type Deps struct {
	Client   llm.Client
	Catalogs CatalogFactory
	Hooks    *hooks.Manager
	Metrics  *metrics.Metrics
	Reports  *store.ReportStore
	Notifier notify.Notifier
	Now      func() time.Time
	Closers  []func() error
}

// Service handles alarm events end to end.
type Service struct {
	cfg  config.Config
	deps Deps
	log  *logging.Logger

	mu       sync.Mutex
	catalogs map[string]*capability.Catalog
}

// New creates a Service.
func New(cfg config.Config, deps Deps, log *logging.Logger) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Hooks == nil {
		deps.Hooks = hooks.NewManager(log)
	}
	return &Service{
		cfg:      cfg,
		deps:     deps,
		log:      log.Sub("app"),
		catalogs: make(map[string]*capability.Catalog),
	}
}

// Hooks returns the lifecycle hook manager.
func (s *Service) Hooks() *hooks.Manager { return s.deps.Hooks }

// Metrics returns the collectors, or nil when metrics are not wired.
func (s *Service) Metrics() *metrics.Metrics { return s.deps.Metrics }

// Reports returns the report store, or nil when persistence is disabled.
func (s *Service) Reports() *store.ReportStore { return s.deps.Reports }

// Catalog returns the diagnostic catalog for region, building it on first use.
// Catalogs are never mutated after construction.
func (s *Service) Catalog(ctx context.Context, region string) (*capability.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cat, ok := s.catalogs[region]; ok {
		return cat, nil
	}
	if s.deps.Catalogs == nil {
		cat := capability.NewCatalog()
		s.catalogs[region] = cat
		return cat, nil
	}
	cat, err := s.deps.Catalogs(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("building catalog for %s: %w", region, err)
	}
	s.catalogs[region] = cat
	s.log.Debug().Str("region", region).Strs("capabilities", cat.Names()).Msg("catalog ready")
	return cat, nil
}

// Handle parses raw as an EventBridge alarm state change, investigates it and
// returns the report. Invalid events wrap domain.ErrInvalidEvent. Storage and
// notification failures are logged and do not fail the call.
func (s *Service) Handle(ctx context.Context, raw []byte) (*report.Report, error) {
	alarm, err := domain.ParseEventBridge(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected event")
		return nil, err
	}

	log := s.log.With("alarm", alarm.Name)
	log.Info().
		Str("state", string(alarm.State)).
		Str("region", alarm.Region).
		Str("account", alarm.AccountID).
		Msg("alarm received")
	s.deps.Hooks.Emit(ctx, hooks.EventAlarmReceived, map[string]any{
		"alarm":   alarm.Name,
		"state":   string(alarm.State),
		"region":  alarm.Region,
		"account": alarm.AccountID,
	})

	catalog, err := s.Catalog(ctx, alarm.Region)
	if err != nil {
		return nil, err
	}

	inv := investigator.New(investigator.Config{
		MaxIterations: s.cfg.Investigator.MaxIterations,
		Parallelism:   s.cfg.Investigator.Parallelism,
		MaxTokens:     s.cfg.Model.MaxTokens,
		Temperature:   s.cfg.Model.Temperature,
	}, s.deps.Client, catalog, s.deps.Hooks, s.log)

	out, err := inv.Investigate(ctx, investigator.NewBrief(alarm, s.cfg.Investigator.Task))
	if err != nil {
		return nil, fmt.Errorf("investigating %s: %w", alarm.Name, err)
	}

	r := report.Build(alarm, out, s.deps.Now())
	s.store(ctx, log, r)
	s.notify(ctx, log, r)
	return &r, nil
}

func (s *Service) store(ctx context.Context, log *logging.Logger, r report.Report) {
	if s.deps.Reports == nil {
		return
	}
	if err := s.deps.Reports.SaveReport(ctx, r); err != nil {
		log.Error().Err(err).Str("report", r.ID).Msg("failed to store report")
		return
	}
	s.deps.Hooks.Emit(ctx, hooks.EventReportStored, map[string]any{
		"report": r.ID,
		"alarm":  r.AlarmName,
	})
}

func (s *Service) notify(ctx context.Context, log *logging.Logger, r report.Report) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, r); err != nil {
		log.Error().Err(err).Str("report", r.ID).Msg("report delivery failed")
		return
	}
	if s.deps.Reports != nil {
		if err := s.deps.Reports.MarkNotified(ctx, r.ID, s.deps.Now()); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("report", r.ID).Msg("failed to mark report notified")
		}
	}
}

// Close releases the store and notifier connections.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.deps.Closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Response is the Lambda-style result envelope.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Respond runs Handle and wraps the outcome in a Response: 200 with the report
// JSON, 400 for an invalid event, 500 for any other failure.
func (s *Service) Respond(ctx context.Context, raw []byte) Response {
	r, err := s.Handle(ctx, raw)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidEvent) {
			code = http.StatusBadRequest
		}
		return errorResponse(code, err)
	}
	body, err := report.RenderJSON(*r)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err)
	}
	return Response{StatusCode: http.StatusOK, Body: string(body)}
}

func errorResponse(code int, err error) Response {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: code, Body: string(body)}
}
