package parser

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const swapCursorName = "parser:swap:last_slot"

// SwapParser infers swaps from pre/post token-balance deltas on any
// transaction with exactly two moving legs — the balance-delta behavior the
// spec's Open Question resolves in favor of (DESIGN.md). The configured AMM
// program set is used only to prefer a pool identity, never to gate which
// transactions get inferred.
type SwapParser struct {
	store    *store.Store
	programs map[string]string
	batch    int
	log      *logrus.Entry
}

// NewSwapParser builds a SwapParser over the configured AMM program set.
func NewSwapParser(st *store.Store, programs map[string]string, batch int, log *logrus.Entry) *SwapParser {
	return &SwapParser{store: st, programs: programs, batch: batch, log: log}
}

// Run polls until ctx is cancelled.
func (p *SwapParser) Run(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.WithError(err).Error("parser/swap: tick failed")
			}
		}
	}
}

// Tick processes one batch of unparsed transactions, advancing the swap
// cursor. No-op batches (nothing to do) still advance the cursor to the
// batch's max slot so the parser never re-scans settled history.
func (p *SwapParser) Tick(ctx context.Context) error {
	last, err := p.store.GetCursor(ctx, swapCursorName)
	if err != nil {
		return err
	}
	rows, err := p.store.UnparsedRawBatch(ctx, "has_swap", last, p.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	maxSlot := last
	for _, row := range rows {
		if _, err := p.parseOne(ctx, row); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Warn("parser/swap: skipping malformed transaction")
		}
		// has_swap marks that this parser has processed the signature, not
		// that it emitted a swap event — a skipped (non-swap, unknown-program)
		// transaction is still "done" for this parser's watermark (spec §4.3).
		if err := p.store.MarkParsed(ctx, row.Signature, true, false, false); err != nil {
			p.log.WithError(err).WithField("signature", row.Signature).Error("parser/swap: mark parsed failed")
		}
		if row.Slot > maxSlot {
			maxSlot = row.Slot
		}
	}
	return p.store.SetCursor(ctx, swapCursorName, maxSlot)
}

func (p *SwapParser) parseOne(ctx context.Context, row store.RawRow) (bool, error) {
	env, err := parseEnvelope(row.Payload)
	if err != nil {
		return false, err
	}
	if env.failed() {
		return false, nil // on-chain-failed transactions emit nothing (no-zero-emission rule)
	}
	// Program membership is used to prefer a pool identity below, but never
	// gates inference: a swap through an unlisted/aggregator program or a
	// nested CPI still shows up as a balance-delta pair (spec §4.3 step 7).
	programID, _ := env.touchesProgram(p.programs)

	deltas := balanceDeltas(env)
	if len(deltas) != 2 {
		// Anything other than exactly two moving legs isn't a simple swap this
		// pipeline can orient (could be a multi-hop route, add/remove liquidity,
		// or a balance no-op) — skip rather than guess (spec's no-zero-emission rule).
		return false, nil
	}

	var sold, bought tokenDelta
	switch {
	case deltas[0].amount.IsNegative() && deltas[1].amount.IsPositive():
		sold, bought = deltas[0], deltas[1]
	case deltas[1].amount.IsNegative() && deltas[0].amount.IsPositive():
		sold, bought = deltas[1], deltas[0]
	default:
		return false, nil // both legs moved the same direction: not a swap
	}

	baseAmt := bought.amount
	quoteAmt := sold.amount.Abs()
	if baseAmt.IsZero() || quoteAmt.IsZero() {
		return false, nil
	}
	price := quoteAmt.Div(baseAmt)

	pool := env.poolAccount(programID, bought.mint, sold.mint)
	if pool == "" {
		return false, nil
	}

	evt := models.SwapEvent{
		TS:       time.Now().UTC(),
		Sig:      row.Signature,
		Slot:     row.Slot,
		Pool:     pool,
		Token:    bought.mint,
		Side:     models.SideBuy,
		Price:    price,
		BaseAmt:  baseAmt,
		QuoteAmt: quoteAmt,
	}
	if err := p.store.InsertSwapEvent(ctx, evt); err != nil {
		return false, err
	}
	return true, nil
}

type tokenDelta struct {
	mint   string
	owner  string
	amount decimal.Decimal
}

// balanceDeltas computes, per (owner, mint), the net uiAmount change between
// pre and post token balances — the core of the balance-delta inference.
func balanceDeltas(env txEnvelope) []tokenDelta {
	type key struct{ owner, mint string }
	pre := make(map[key]float64, len(env.Meta.PreTokenBalances))
	for _, b := range env.Meta.PreTokenBalances {
		pre[key{b.Owner, b.Mint}] = b.UiTokenAmount.UiAmount
	}

	seen := make(map[key]bool)
	var out []tokenDelta
	for _, b := range env.Meta.PostTokenBalances {
		k := key{b.Owner, b.Mint}
		seen[k] = true
		delta := b.UiTokenAmount.UiAmount - pre[k]
		if delta == 0 {
			continue
		}
		out = append(out, tokenDelta{mint: b.Mint, owner: b.Owner, amount: decimal.NewFromFloat(delta)})
	}
	for k, amt := range pre {
		if seen[k] || amt == 0 {
			continue
		}
		out = append(out, tokenDelta{mint: k.mint, owner: k.owner, amount: decimal.NewFromFloat(-amt)})
	}
	return out
}
