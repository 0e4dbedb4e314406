package store

import (
	"context"

	"github.com/scfnet/scf-engine/pkg/models"
)

// InsertLpEvent appends one liquidity-pool-touching transaction. Reserves are
// intentionally nullable (spec §4.4): this scaffold records that a pool's
// liquidity state changed without claiming to know the new reserves.
func (s *Store) InsertLpEvent(ctx context.Context, e models.LpEvent) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO lp_event (sig, ts, slot, pool, x_reserve, y_reserve, fee_bps, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.Sig, e.TS, e.Slot, e.Pool, e.XReserve, e.YReserve, e.FeeBps, string(e.Kind))
	return err
}
