package parser

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

const authCursorName = "parser:authority:last_slot"

// AuthorityParser records one scaffold row per transaction that invokes a
// configured AMM program, for the first mint in its post-token balances
// (other mints in the same transaction get no row) — carried forward from the original's
// parser_authority.py as a placeholder for future mint-authority/tax-flag
// tracking; nothing downstream reads this table yet.
type AuthorityParser struct {
	store    *store.Store
	programs map[string]string
	batch    int
	log      *logrus.Entry
}

// NewAuthorityParser builds an AuthorityParser over the configured AMM program set.
func NewAuthorityParser(st *store.Store, programs map[string]string, batch int, log *logrus.Entry) *AuthorityParser {
	return &AuthorityParser{store: st, programs: programs, batch: batch, log: log}
}

// Run polls until ctx is cancelled.
func (p *AuthorityParser) Run(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.WithError(err).Error("parser/authority: tick failed")
			}
		}
	}
}

// Tick processes one batch of unparsed transactions, advancing the authority cursor.
func (p *AuthorityParser) Tick(ctx context.Context) error {
	last, err := p.store.GetCursor(ctx, authCursorName)
	if err != nil {
		return err
	}
	rows, err := p.store.UnparsedRawBatch(ctx, "has_auth", last, p.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	maxSlot := last
	for _, row := range rows {
		if _, err := p.parseOne(ctx, row); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Warn("parser/authority: skipping malformed transaction")
		}
		// has_auth marks that this parser has processed the signature, not
		// that it emitted an authority row (spec §4.1/§4.3 step 2).
		if err := p.store.MarkParsed(ctx, row.Signature, false, false, true); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Error("parser/authority: mark parsed failed")
		}
		if row.Slot > maxSlot {
			maxSlot = row.Slot
		}
	}
	return p.store.SetCursor(ctx, authCursorName, maxSlot)
}

func (p *AuthorityParser) parseOne(ctx context.Context, row store.RawRow) (bool, error) {
	env, err := parseEnvelope(row.Payload)
	if err != nil {
		return false, err
	}
	if env.failed() {
		return false, nil
	}
	if _, ok := env.touchesProgram(p.programs); !ok {
		return false, nil
	}
	if len(env.Meta.PostTokenBalances) == 0 {
		return false, nil
	}
	mint := env.Meta.PostTokenBalances[0].Mint
	if mint == "" {
		return false, nil
	}

	evt := models.AuthorityEvent{
		TS:   time.Now().UTC(),
		Mint: mint,
	}
	if err := p.store.InsertAuthorityEvent(ctx, evt); err != nil {
		return false, err
	}
	return true, nil
}
