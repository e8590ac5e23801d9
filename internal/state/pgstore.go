package state

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"aurorawatch/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx, so the
// store works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists alert state in the alert_state table:
//
//	CREATE TABLE alert_state (
//	    channel_id            text PRIMARY KEY,
//	    last_fired_at         timestamptz,
//	    last_notified_peak_at timestamptz
//	);
//
// Commit is a conditional upsert: the update only applies when the stored
// timestamps still match the previously loaded record, which makes commits
// linearizable per channel even across hosts.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore creates a PostgresStore backed by the given connection
// (pool or transaction).
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns all channel records.
func (s *PostgresStore) Load(ctx context.Context) (map[string]types.AlertState, error) {
	rows, err := s.db.Query(ctx,
		`SELECT channel_id, last_fired_at, last_notified_peak_at FROM alert_state`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStateLoad, "querying alert state", err)
	}
	defer rows.Close()

	records := map[string]types.AlertState{}
	for rows.Next() {
		var rec types.AlertState
		if err := rows.Scan(&rec.ChannelID, &rec.LastFiredAt, &rec.LastNotifiedPeakAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeStateLoad, "scanning alert state row", err)
		}
		records[rec.ChannelID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStateLoad, "iterating alert state rows", err)
	}
	return records, nil
}

// Commit upserts the channel record with a compare-and-swap condition on
// the previously observed values. Zero rows affected means another
// invocation committed in between.
func (s *PostgresStore) Commit(ctx context.Context, prev, next types.AlertState) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO alert_state (channel_id, last_fired_at, last_notified_peak_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (channel_id) DO UPDATE
		 SET last_fired_at = EXCLUDED.last_fired_at,
		     last_notified_peak_at = EXCLUDED.last_notified_peak_at
		 WHERE alert_state.last_fired_at IS NOT DISTINCT FROM $4
		   AND alert_state.last_notified_peak_at IS NOT DISTINCT FROM $5`,
		next.ChannelID,
		next.LastFiredAt,
		next.LastNotifiedPeakAt,
		prev.LastFiredAt,
		prev.LastNotifiedPeakAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeStatePersist, "upserting alert state", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeStateConflict,
			"alert state changed since load; concurrent invocation committed first", nil)
	}
	return nil
}
