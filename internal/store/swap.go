package store

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
)

// InsertSwapEvent appends one inferred swap. Swap events are never updated or
// deleted (spec §3: append-only event tables).
func (s *Store) InsertSwapEvent(ctx context.Context, e models.SwapEvent) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO swap_event (ts, sig, slot, pool, token, side, price, base_amt, quote_amt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.TS, e.Sig, e.Slot, e.Pool, e.Token, int(e.Side), e.Price, e.BaseAmt, e.QuoteAmt)
	return err
}

// LatestPrice returns the most recent swap price observed for a pool, and
// whether one exists at all (the exit worker skips pools with no price yet).
func (s *Store) LatestPrice(ctx context.Context, pool string) (price models.SwapEvent, found bool, err error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, ts, sig, slot, pool, token, side, price, base_amt, quote_amt
		FROM swap_event
		WHERE pool = $1
		ORDER BY ts DESC
		LIMIT 1`, pool)
	var side int
	err = row.Scan(&price.ID, &price.TS, &price.Sig, &price.Slot, &price.Pool, &price.Token, &side, &price.Price, &price.BaseAmt, &price.QuoteAmt)
	if err != nil {
		return models.SwapEvent{}, false, swallowNoRows(err)
	}
	price.Side = models.SwapSide(side)
	return price, true, nil
}

// ActiveSwapPools lists pools with at least one swap since cutoff — the
// feature worker's "active in the last 24h" selection (spec §4.5).
func (s *Store) ActiveSwapPools(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT pool FROM swap_event WHERE ts >= $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pools []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// PoolSwapsSince returns every swap for a pool from cutoff onward, ascending
// by time — the window the feature worker folds into ATR/VC/CVD statistics.
func (s *Store) PoolSwapsSince(ctx context.Context, pool string, cutoff time.Time) ([]models.SwapEvent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, ts, sig, slot, pool, token, side, price, base_amt, quote_amt
		FROM swap_event
		WHERE pool = $1 AND ts >= $2
		ORDER BY ts ASC`, pool, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.SwapEvent
	for rows.Next() {
		var e models.SwapEvent
		var side int
		if err := rows.Scan(&e.ID, &e.TS, &e.Sig, &e.Slot, &e.Pool, &e.Token, &side, &e.Price, &e.BaseAmt, &e.QuoteAmt); err != nil {
			return nil, err
		}
		e.Side = models.SwapSide(side)
		out = append(out, e)
	}
	return out, rows.Err()
}
