// Package audit provides the append-only request audit trail.
// All operations are append-only; no updates or deletes are supported.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Beor18/real-state-matches-sub000/pkg/uuid"
)

// Service writes and reads audit_event rows.
type Service struct {
	db *sql.DB
}

// NewService creates a new audit service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record persists one audit event. This is the ONLY way to create audit
// events - no updates, no deletes.
func (s *Service) Record(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		// UUID v7 keeps events time-ordered by primary key.
		evt.ID = uuid.NewV7().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_event (id, request_id, method, path, status_code, duration_ms, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.RequestID, evt.Method, evt.Path, evt.StatusCode, evt.DurationMS, string(evt.Outcome))
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first, capped at limit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, method, path, status_code, duration_ms, outcome, created_at
		FROM audit_event
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var outcome, createdAt string
		if err := rows.Scan(&evt.ID, &evt.RequestID, &evt.Method, &evt.Path, &evt.StatusCode, &evt.DurationMS, &outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		evt.Outcome = Outcome(outcome)
		evt.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		events = append(events, evt)
	}
	return events, rows.Err()
}

// OutcomeFromStatus maps an HTTP status code to an audit outcome.
func OutcomeFromStatus(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == 401 || statusCode == 403:
		return OutcomeDenied
	default:
		return OutcomeError
	}
}
