// Package postgres persists security events to the append-only
// security_events table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"leadgate/internal/security/events/models"
)

// Store implements the publisher sink and the admin read API on Postgres.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "postgres" }

// Append inserts the batch in one transaction. Re-delivered events are
// ignored by id so publisher retries stay idempotent.
func (s *Store) Append(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin security event tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO security_events (
			id, event_type, occurred_at, client_ip, user_agent,
			method, path, request_id, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare security event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		metadata, err := encodeMetadata(e.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID,
			string(e.Type),
			e.OccurredAt,
			e.ClientIP,
			e.UserAgent,
			e.Method,
			e.Path,
			e.RequestID,
			metadata,
		); err != nil {
			return fmt.Errorf("insert security event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit security events: %w", err)
	}
	return nil
}

// List returns matching events, newest first.
func (s *Store) List(ctx context.Context, filter models.Filter) ([]models.Event, error) {
	filter = filter.Normalized()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, occurred_at, client_ip, user_agent,
		       method, path, request_id, metadata
		FROM security_events
		WHERE ($1 = '' OR event_type = $1)
		ORDER BY occurred_at DESC
		LIMIT $2
	`, string(filter.Type), clampLimit(filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			e        models.Event
			typ      string
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.OccurredAt, &e.ClientIP, &e.UserAgent,
			&e.Method, &e.Path, &e.RequestID, &metadata); err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		e.Type = models.Type(typ)
		if len(metadata) > 0 && string(metadata) != "{}" {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode security event metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}
	return out, nil
}

func encodeMetadata(md map[string]any) ([]byte, error) {
	if len(md) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("encode security event metadata: %w", err)
	}
	return b, nil
}

func clampLimit(limit int) int32 {
	if limit > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(limit) //nolint:gosec // bounded above
}
