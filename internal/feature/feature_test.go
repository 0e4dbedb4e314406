package feature

import (
	"testing"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func swap(side models.SwapSide, price, quote float64, ts time.Time) models.SwapEvent {
	return models.SwapEvent{
		Side:     side,
		Price:    decimal.NewFromFloat(price),
		QuoteAmt: decimal.NewFromFloat(quote),
		TS:       ts,
	}
}

func TestAverageTrueRangePct(t *testing.T) {
	now := time.Now()
	swaps := []models.SwapEvent{
		swap(models.SideBuy, 100, 10, now),
		swap(models.SideBuy, 110, 10, now.Add(time.Minute)),
		swap(models.SideSell, 99, 10, now.Add(2*time.Minute)),
	}
	got := averageTrueRangePct(swaps)
	// moves: |110-100|/100=0.10, |99-110|/110≈0.1, average ≈ 0.1
	if got.LessThan(decimal.NewFromFloat(0.09)) || got.GreaterThan(decimal.NewFromFloat(0.11)) {
		t.Fatalf("unexpected ATR: %s", got.String())
	}
}

func TestVolumeConcentration(t *testing.T) {
	swaps := []models.SwapEvent{
		swap(models.SideBuy, 1, 90, time.Now()),
		swap(models.SideSell, 1, 10, time.Now()),
	}
	got := volumeConcentration(swaps)
	want := decimal.NewFromFloat(0.9)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.String(), want.String())
	}
}

func TestWinConsistency(t *testing.T) {
	swaps := []models.SwapEvent{
		swap(models.SideBuy, 1, 1, time.Now()),
		swap(models.SideBuy, 1, 1, time.Now()),
		swap(models.SideBuy, 1, 1, time.Now()),
		swap(models.SideSell, 1, 1, time.Now()),
	}
	got := winConsistency(swaps)
	want := decimal.NewFromFloat(0.75)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.String(), want.String())
	}
}

func TestCVDSlope5m(t *testing.T) {
	now := time.Now()
	swaps := []models.SwapEvent{
		swap(models.SideBuy, 1, 10, now),
		swap(models.SideBuy, 1, 10, now.Add(5*time.Minute)),
	}
	got := cvdSlope5m(swaps)
	// cumulative signed volume = 20 over 5 minutes => slope 4/min
	want := decimal.NewFromFloat(4)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.String(), want.String())
	}
}
