package detector

import (
	"testing"

	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

func thresholds() config.Thresholds {
	return config.Thresholds{
		VCMax:  decimal.NewFromFloat(0.015),
		OFSMax: decimal.NewFromFloat(0.001),
		LTMax:  decimal.NewFromInt(5000),
		WCMin:  decimal.NewFromFloat(0.6),
		RQMax:  decimal.NewFromFloat(0.5),
	}
}

func d(f float64) *decimal.Decimal {
	v := decimal.NewFromFloat(f)
	return &v
}

func TestEvaluate_AllPass(t *testing.T) {
	snap := models.FeatureSnapshot{
		VCRatio:           d(0.01),
		CVDSlope5m:        d(0.0005),
		QuoteVolume24h:    d(1000),
		WinConsistency:    d(0.7),
		ReversionQuotient: d(0.4),
	}
	pass, reason := Evaluate(newFeatureView(snap), thresholds())
	if !pass {
		t.Fatalf("expected pass, got fail with reason %q", reason)
	}
	if reason != "SCF5:VC+OFS+LT+WC+RQ" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestEvaluate_FailsOnFirstViolatedCheck(t *testing.T) {
	snap := models.FeatureSnapshot{
		VCRatio:           d(0.05), // over VCMax
		CVDSlope5m:        d(0.0005),
		QuoteVolume24h:    d(6000),
		WinConsistency:    d(0.7),
		ReversionQuotient: d(0.4),
	}
	pass, reason := Evaluate(newFeatureView(snap), thresholds())
	if pass {
		t.Fatalf("expected fail, got pass")
	}
	if reason != "fail:VC" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestEvaluate_MissingColumnsReportedTogether(t *testing.T) {
	snap := models.FeatureSnapshot{
		VCRatio: d(0.01),
		// CVDSlope5m, QuoteVolume24h, WinConsistency, ReversionQuotient all nil
	}
	pass, reason := Evaluate(newFeatureView(snap), thresholds())
	if pass {
		t.Fatalf("expected fail, got pass")
	}
	if reason != "missing:ofs,lt,wc,rq" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestEvaluate_OFSUsesAbsoluteValue(t *testing.T) {
	snap := models.FeatureSnapshot{
		VCRatio:           d(0.01),
		CVDSlope5m:        d(-0.0005), // negative but within abs(OFSMax)
		QuoteVolume24h:    d(1000),
		WinConsistency:    d(0.7),
		ReversionQuotient: d(0.4),
	}
	pass, _ := Evaluate(newFeatureView(snap), thresholds())
	if !pass {
		t.Fatalf("expected pass for negative OFS within threshold magnitude")
	}
}
