package store

import (
	"testing"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func TestSnapshotToRaw_OmitsNilColumns(t *testing.T) {
	vc := decimal.NewFromFloat(0.02)
	f := models.FeatureSnapshot{
		Pool:    "pool1",
		TS:      time.Now().UTC(),
		VCRatio: &vc,
		Obs:     5,
	}

	raw := snapshotToRaw(f)

	if _, ok := raw["vc_ratio"]; !ok {
		t.Fatalf("expected vc_ratio present in raw map")
	}
	for _, k := range []string{"atr_pct_15m", "atr_pct_24h", "cvd_slope_5m", "quote_volume_24h", "win_consistency", "reversion_quotient"} {
		if _, ok := raw[k]; ok {
			t.Fatalf("expected %s omitted for nil column, got %v", k, raw[k])
		}
	}
}

func TestSnapshotToRaw_RoundTripsThroughJSON(t *testing.T) {
	vc := decimal.NewFromFloat(0.015)
	f := models.FeatureSnapshot{Pool: "pool1", TS: time.Now().UTC(), VCRatio: &vc}

	raw := snapshotToRaw(f)

	got, ok := raw["vc_ratio"].(float64)
	if !ok {
		t.Fatalf("expected vc_ratio to decode as float64 after JSON round-trip, got %T", raw["vc_ratio"])
	}
	if got != 0.015 {
		t.Fatalf("got %v, want 0.015", got)
	}
}
