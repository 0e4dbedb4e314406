package parser

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

const lpCursorName = "parser:lp:last_slot"

// LpParser records that a pool's liquidity state changed, without claiming
// to know the new reserves — the program-ID-gated scaffold spec §4.4 calls
// for (reserves are filled in by a future, more capable parser).
type LpParser struct {
	store    *store.Store
	programs map[string]string
	batch    int
	log      *logrus.Entry
}

// NewLpParser builds an LpParser over the configured AMM program set.
func NewLpParser(st *store.Store, programs map[string]string, batch int, log *logrus.Entry) *LpParser {
	return &LpParser{store: st, programs: programs, batch: batch, log: log}
}

// Run polls until ctx is cancelled.
func (p *LpParser) Run(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.WithError(err).Error("parser/lp: tick failed")
			}
		}
	}
}

// Tick processes one batch of unparsed transactions, advancing the LP cursor.
func (p *LpParser) Tick(ctx context.Context) error {
	last, err := p.store.GetCursor(ctx, lpCursorName)
	if err != nil {
		return err
	}
	rows, err := p.store.UnparsedRawBatch(ctx, "has_lp", last, p.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	maxSlot := last
	for _, row := range rows {
		if _, err := p.parseOne(ctx, row); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Warn("parser/lp: skipping malformed transaction")
		}
		// has_lp marks that this parser has processed the signature, not that
		// it emitted an LP event (spec §4.4).
		if err := p.store.MarkParsed(ctx, row.Signature, false, true, false); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Error("parser/lp: mark parsed failed")
		}
		if row.Slot > maxSlot {
			maxSlot = row.Slot
		}
	}
	return p.store.SetCursor(ctx, lpCursorName, maxSlot)
}

func (p *LpParser) parseOne(ctx context.Context, row store.RawRow) (bool, error) {
	env, err := parseEnvelope(row.Payload)
	if err != nil {
		return false, err
	}
	if env.failed() {
		return false, nil
	}
	programID, ok := env.touchesProgram(p.programs)
	if !ok {
		return false, nil
	}

	pool := env.poolAccount(programID, "", "")
	if pool == "" {
		return false, nil
	}

	evt := models.LpEvent{
		Sig:  row.Signature,
		TS:   time.Now().UTC(),
		Slot: row.Slot,
		Pool: pool,
		Kind: models.LpKindUpdate,
	}
	if err := p.store.InsertLpEvent(ctx, evt); err != nil {
		return false, err
	}
	return true, nil
}
