package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// GetCursor reads a named monotonic cursor (e.g. "parser:swap:last_slot"),
// returning 0 if the cursor has never been set — the pipeline's generic
// replacement for per-table cursor columns, shared across all three parsers.
func (s *Store) GetCursor(ctx context.Context, name string) (int64, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx, `SELECT value FROM cursor_state WHERE name = $1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v struct {
		LastSlot int64 `json:"last_slot"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return v.LastSlot, nil
}

// SetCursor advances a named cursor. Callers are responsible for only ever
// calling this with a value >= the previous one (spec §4.2's monotonicity
// invariant); the store does not enforce it since backfill/replay tooling
// may legitimately need to rewind a cursor by hand.
func (s *Store) SetCursor(ctx context.Context, name string, lastSlot int64) error {
	raw, err := json.Marshal(struct {
		LastSlot int64 `json:"last_slot"`
	}{LastSlot: lastSlot})
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO cursor_state (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		name, raw)
	return err
}

// DetectorHeartbeat records the detector's last successful sweep time.
func (s *Store) DetectorHeartbeat(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO detector_cursor (id, last_seen) VALUES (1, NOW())
		ON CONFLICT (id) DO UPDATE SET last_seen = EXCLUDED.last_seen`)
	return err
}
