package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/scfnet/scf-engine/pkg/models"
)

// InsertFill appends one execution fill against a position.
func (s *Store) InsertFill(ctx context.Context, f models.Fill) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO fill (pos_id, side, px, qty, tx) VALUES ($1, $2, $3, $4, $5)`,
		f.PosID, string(f.Side), f.Px, f.Qty, f.Tx)
	return err
}

// Fills returns every fill for a position, oldest first.
func (s *Store) Fills(ctx context.Context, posID uuid.UUID) ([]models.Fill, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, ts, pos_id, side, px, qty, tx FROM fill WHERE pos_id = $1 ORDER BY ts ASC`, posID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Fill
	for rows.Next() {
		var f models.Fill
		var side string
		if err := rows.Scan(&f.ID, &f.TS, &f.PosID, &side, &f.Px, &f.Qty, &f.Tx); err != nil {
			return nil, err
		}
		f.Side = models.FillSide(side)
		out = append(out, f)
	}
	return out, rows.Err()
}
