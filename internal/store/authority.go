package store

import (
	"context"

	"github.com/scfnet/scf-engine/pkg/models"
)

// InsertAuthorityEvent appends one mint/authority scaffold row (spec §4.1's
// original parser_authority.py carries this forward as a placeholder for
// future mint-authority/tax-flag tracking; no consumer reads it yet).
func (s *Store) InsertAuthorityEvent(ctx context.Context, e models.AuthorityEvent) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO authority_event (ts, mint, pool, fee_switch, tax_flag, mint_auth, freeze_auth)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.TS, e.Mint, e.Pool, e.FeeSwitch, e.TaxFlag, e.MintAuth, e.FreezeAuth)
	return err
}
