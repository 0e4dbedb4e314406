package executor

import (
	"context"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// paperFill mirrors executor_paper.py: no real submission, a synthetic unit
// entry price, zero size, zero slippage. The exit worker is documented to
// race the first real swap price against this synthetic entry in paper mode
// (DESIGN.md's "price-source feedback loop" decision) — an accepted artifact,
// not a bug worked around here.
func paperFill(_ context.Context, _ models.DetectorSignal) (Fill, error) {
	return Fill{
		Size:        decimal.Zero,
		EntryPx:     decimal.NewFromInt(1),
		SlippageBps: 0,
	}, nil
}
