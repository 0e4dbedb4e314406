package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// ErrNegativeSize is returned when a partial exit would take a position's
// remaining size below zero — an invariant violation (spec §7), never a
// transient condition to retry.
var ErrNegativeSize = fmt.Errorf("store: partial exit would drive position size negative")

// ApplyPartialExit records one partial exit as a single transaction: a SELL
// fill, the position's decremented size, its partials_taken tag, and the
// exit event — grounded on exit_worker.py's partial-exit handling, redesigned
// around the typed PartialTag (spec §9).
func (s *Store) ApplyPartialExit(ctx context.Context, posID uuid.UUID, tag models.PartialTag, px, qty decimal.Decimal, reason models.ExitReason) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		curSize decimal.Decimal
		metaRaw []byte
	)
	if err := tx.QueryRow(ctx, `SELECT size, meta FROM position WHERE id = $1 FOR UPDATE`, posID).Scan(&curSize, &metaRaw); err != nil {
		return err
	}
	var meta models.PositionMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return err
	}
	if meta.HasTaken(tag) {
		return nil // already applied; idempotent no-op
	}

	newSize := curSize.Sub(qty)
	if newSize.IsNegative() {
		return ErrNegativeSize
	}
	meta = meta.MarkTaken(tag)
	newMetaRaw, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO fill (pos_id, side, px, qty) VALUES ($1, $2, $3, $4)`,
		posID, string(models.FillSell), px, qty); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE position SET size = $2, meta = $3 WHERE id = $1`, posID, newSize, newMetaRaw); err != nil {
		return err
	}
	exitMeta, err := json.Marshal(map[string]any{"tag": tag.Tag(), "qty": qty.String(), "px": px.String()})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO exit_event (pos_id, reason, meta) VALUES ($1, $2, $3)`,
		posID, string(reason), exitMeta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApplyFullClose records a full close as a single transaction: a SELL fill
// for the remaining size, the exit event, and the position's CLOSED state —
// takes precedence over any still-pending partial level (spec §4.8).
func (s *Store) ApplyFullClose(ctx context.Context, posID uuid.UUID, px decimal.Decimal, reason models.ExitReason) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var curSize decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT size FROM position WHERE id = $1 FOR UPDATE`, posID).Scan(&curSize); err != nil {
		return err
	}
	if curSize.IsNegative() {
		return ErrNegativeSize
	}

	if _, err := tx.Exec(ctx, `INSERT INTO fill (pos_id, side, px, qty) VALUES ($1, $2, $3, $4)`,
		posID, string(models.FillSell), px, curSize); err != nil {
		return err
	}
	exitMeta, err := json.Marshal(map[string]any{"qty": curSize.String(), "px": px.String()})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO exit_event (pos_id, reason, meta) VALUES ($1, $2, $3)`,
		posID, string(reason), exitMeta); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE position SET size = 0, state = 'CLOSED', status = 'closed' WHERE id = $1`, posID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
