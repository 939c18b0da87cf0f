package settlement

import (
	"context"
	"database/sql"
)

// PostgresStore persiste o snapshot na tabela settlement_snapshots.
// Usado pelo settlement-worker pra não renotificar após restart.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Load(ctx context.Context) (map[string]Entry, error) {
	const q = `SELECT bet_id, status, settled_at, updated_at FROM settlement_snapshots`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var id string
		var e Entry
		var settledAt sql.NullTime
		if err := rows.Scan(&id, &e.Status, &settledAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if settledAt.Valid {
			t := settledAt.Time
			e.SettledAt = &t
		}
		out[id] = e
	}
	return out, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, betID string, e Entry) error {
	const q = `
		INSERT INTO settlement_snapshots (bet_id, status, settled_at, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (bet_id) DO UPDATE SET
		  status     = EXCLUDED.status,
		  settled_at = EXCLUDED.settled_at,
		  updated_at = EXCLUDED.updated_at
	`
	var settledAt sql.NullTime
	if e.SettledAt != nil {
		settledAt = sql.NullTime{Time: *e.SettledAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, q, betID, e.Status, settledAt, e.UpdatedAt)
	return err
}
