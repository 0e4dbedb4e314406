package store

import (
	"context"
	"encoding/json"

	"github.com/scfnet/scf-engine/pkg/models"
)

// InsertSignalIfAbsent inserts a detector signal unless a signal for the same
// pool and signal type already exists within dedupSec — an atomic guard against the detector
// re-firing on every poll tick while a pool remains in a passing state
// (grounded on detector.py's `INSERT ... WHERE NOT EXISTS` dedup query).
// Returns true if a new signal was inserted.
func (s *Store) InsertSignalIfAbsent(ctx context.Context, sig models.DetectorSignal, dedupSec int) (bool, error) {
	raw, err := json.Marshal(sig.FeatureSnapshot)
	if err != nil {
		return false, err
	}

	cmd, err := s.Pool.Exec(ctx, `
		INSERT INTO detector_signal (pool, signal_type, reason, feature_snapshot)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM detector_signal
			WHERE pool = $1
			  AND signal_type = $2
			  AND created_at >= NOW() - ($5 || ' seconds')::interval
		)`,
		sig.Pool, string(sig.SignalType), sig.Reason, raw, dedupSec)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// ListSignals returns the most recent detector signals, newest first — the
// dashboard's GET /signals input.
func (s *Store) ListSignals(ctx context.Context, limit int) ([]models.DetectorSignal, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, pool, signal_type, reason, feature_snapshot, created_at
		FROM detector_signal
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DetectorSignal
	for rows.Next() {
		var (
			d   models.DetectorSignal
			raw []byte
		)
		if err := rows.Scan(&d.ID, &d.Pool, &d.SignalType, &d.Reason, &raw, &d.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &d.FeatureSnapshot); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UnexecutedSignals returns signals from the last windowMin minutes that have
// not yet produced a position, oldest first — the executor's poll input
// (spec §4.7).
func (s *Store) UnexecutedSignals(ctx context.Context, windowMin, limit int) ([]models.DetectorSignal, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT d.id, d.pool, d.signal_type, d.reason, d.feature_snapshot, d.created_at
		FROM detector_signal d
		WHERE d.created_at >= NOW() - ($1 || ' minutes')::interval
		  AND NOT EXISTS (
		      SELECT 1 FROM position p WHERE p.meta->>'signal_id' = d.id::text
		  )
		ORDER BY d.created_at ASC
		LIMIT $2`, windowMin, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DetectorSignal
	for rows.Next() {
		var (
			d   models.DetectorSignal
			raw []byte
		)
		if err := rows.Scan(&d.ID, &d.Pool, &d.SignalType, &d.Reason, &raw, &d.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &d.FeatureSnapshot); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
