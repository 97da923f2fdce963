package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"idledger/pkg/domain"
	audit "idledger/pkg/platform/audit"
)

//go:embed schema.sql
var schema string

// Store persists audit events in PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Append inserts an audit event. Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_audit_events (id, category, timestamp, action, caller, subject, ledger_time, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.Action,
		event.Caller.String(),
		event.Subject,
		int64(event.LedgerTime), //nolint:gosec // ledger clock values stay below int64 max
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByCaller returns the caller's events oldest first.
func (s *Store) ListByCaller(ctx context.Context, caller domain.Address) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, timestamp, action, caller, subject, ledger_time, request_id
		FROM ledger_audit_events
		WHERE caller = $1
		ORDER BY timestamp ASC, id ASC`, caller.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := []audit.Event{}
	for rows.Next() {
		var (
			event      audit.Event
			category   string
			callerText string
			ledgerTime int64
		)
		if err := rows.Scan(&event.ID, &category, &event.Timestamp, &event.Action,
			&callerText, &event.Subject, &ledgerTime, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Caller = domain.Address(callerText)
		event.LedgerTime = uint64(ledgerTime) //nolint:gosec // written from a uint64 below int64 max
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
