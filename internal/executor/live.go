package executor

import (
	"context"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// liveFillSize is the placeholder position size used until a real sizing
// model (risk budget, pool depth check) lands.
var liveFillSize = decimal.NewFromInt(1)

// liveSlippageBps is the placeholder slippage allowance assumed for live
// fills until real quote-then-submit slippage measurement lands.
const liveSlippageBps = 50

// liveFill mirrors executor_live.py: a non-zero placeholder size and a fixed
// slippage assumption, with no transaction signature (tx is always nil on
// the resulting entry Fill row). A real live executor replaces this with an
// actual swap submission against the signal's pool, using the fill price the
// chain returns as EntryPx instead of this placeholder.
func liveFill(_ context.Context, _ models.DetectorSignal) (Fill, error) {
	return Fill{
		Size:        liveFillSize,
		EntryPx:     decimal.NewFromInt(1),
		SlippageBps: liveSlippageBps,
	}, nil
}
