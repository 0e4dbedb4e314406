package exit

import (
	"testing"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestLevelReached_TakeProfit(t *testing.T) {
	entry := dec(1.0)
	level := dec(1.5) // current_px/entry_px >= 1.5

	if levelReached(entry, dec(1.4), level, models.PartialTP) {
		t.Fatalf("expected 1.4x entry not to reach a 1.5x TP level")
	}
	if !levelReached(entry, dec(1.5), level, models.PartialTP) {
		t.Fatalf("expected exact 1.5x entry to reach TP level")
	}
	if !levelReached(entry, dec(2.1), level, models.PartialTP) {
		t.Fatalf("expected price beyond level to reach TP level")
	}
}

func TestLevelReached_StopLoss(t *testing.T) {
	entry := dec(1.0)
	level := dec(0.9) // current_px/entry_px <= 0.9

	if levelReached(entry, dec(0.95), level, models.PartialSL) {
		t.Fatalf("expected 0.95x entry not to reach a 0.9x SL level")
	}
	if !levelReached(entry, dec(0.9), level, models.PartialSL) {
		t.Fatalf("expected exact 0.9x entry to reach SL level")
	}
	if !levelReached(entry, dec(0.5), level, models.PartialSL) {
		t.Fatalf("expected price below level to reach SL level")
	}
}

// TestScenario_FullCloseAtTPMultiple exercises spec §8 scenario 3's numbers
// directly: entry 1.0, TP_MULT 2.0, partial levels 1.5/2.0 — price moves
// 1.0 -> 1.6 -> 2.1. The 1.6 tick should fire the 1.5 partial level; the 2.1
// tick crosses TP_MULT (2.0) and must take precedence over the still-open
// 2.0 partial level.
func TestScenario_FullCloseAtTPMultiple(t *testing.T) {
	entry := dec(1.0)
	tpMult := dec(2.0)
	levels := []decimal.Decimal{dec(1.5), dec(2.0)}

	if !levelReached(entry, dec(1.6), levels[0], models.PartialTP) {
		t.Fatalf("expected price 1.6x entry to reach the 1.5x partial level")
	}
	if levelReached(entry, dec(1.6), levels[1], models.PartialTP) {
		t.Fatalf("expected price 1.6x entry not to reach the 2.0x partial level")
	}

	tpPx := entry.Mul(tpMult)
	if !dec(2.1).GreaterThanOrEqual(tpPx) {
		t.Fatalf("expected price 2.1 to cross TP_MULT target %s", tpPx.String())
	}
}
