package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/alarmhound/internal/report"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// ReportQuery filters ListReports. A zero Limit defaults to 20.
type ReportQuery struct {
	AlarmName string
	State     string
	Limit     int
}

// ReportStore reads and writes investigation reports.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a report store using the given database.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// SaveReport inserts or replaces a report.
func (s *ReportStore) SaveReport(ctx context.Context, r report.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.sql.ExecContext(ctx,
		`INSERT INTO reports (id, alarm_name, account_id, region, state, outcome, iterations, tool_calls, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   body = excluded.body,
		   outcome = excluded.outcome,
		   iterations = excluded.iterations,
		   tool_calls = excluded.tool_calls`,
		r.ID, r.AlarmName, r.AccountID, r.Region, r.State, r.Outcome,
		r.Iterations, r.ToolCalls, string(body),
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	return nil
}

// GetReport returns the report with the given id.
func (s *ReportStore) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var body string
	err := s.db.sql.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}

	var r report.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &r, nil
}

// ListReports returns reports newest first.
func (s *ReportStore) ListReports(ctx context.Context, q ReportQuery) ([]report.Report, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	query := `SELECT body FROM reports WHERE 1=1`
	var args []any
	if q.AlarmName != "" {
		query += ` AND alarm_name = ?`
		args = append(args, q.AlarmName)
	}
	if q.State != "" {
		query += ` AND state = ?`
		args = append(args, q.State)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	reports := []report.Report{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var r report.Report
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			s.db.log.Warn().Err(err).Msg("skipping undecodable report")
			continue
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// MarkNotified records when a report was delivered.
func (s *ReportStore) MarkNotified(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE reports SET notified_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("marking report %s notified: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored reports.
func (s *ReportStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	return n, err
}
