package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
)

// LogSink writes every event to the structured log.
func LogSink(logger zerolog.Logger) Sink {
	return SinkFunc(func(_ context.Context, e Event) error {
		logger.Info().
			Str("event_id", e.ID).
			Str("event_type", string(e.Type)).
			Str("actor", e.Actor).
			Time("timestamp", e.Timestamp).
			Msg(e.Message)
		return nil
	})
}

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store persists events to the audit_events table.
type Store struct {
	pool *pgxpool.Pool
}

var _ Archive = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *Store) Write(ctx context.Context, e Event) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO audit_events (id, type, actor, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, string(e.Type), e.Actor, e.Message, e.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit stored events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT id, type, actor, message, occurred_at
		FROM audit_events ORDER BY occurred_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var t string
		if err := rows.Scan(&e.ID, &t, &e.Actor, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = EventType(t)
		out = append(out, e)
	}
	return out, rows.Err()
}
