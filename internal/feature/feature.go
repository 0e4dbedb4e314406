// Package feature is the Feature Worker (spec §4.5): every poll interval it
// recomputes each active pool's ATR%, volume-concentration ratio, and 5-minute
// CVD slope from the swap_event window, grounded on feature_worker.py's
// pool-selection and statistics shape.
package feature

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// minObservations is the fewest swaps a pool needs in its 24h window before
// this worker will publish a feature row for it; pools below this are left
// on their previous row rather than published with noisy statistics.
const minObservations = 3

// Worker recomputes features_latest on a fixed interval.
type Worker struct {
	store        *store.Store
	pollInterval time.Duration
	log          *logrus.Entry
}

// New builds a feature Worker.
func New(st *store.Store, pollInterval time.Duration, log *logrus.Entry) *Worker {
	return &Worker{store: st, pollInterval: pollInterval, log: log}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.log.WithError(err).Error("feature: tick failed")
			}
		}
	}
}

func (w *Worker) tick(ctx context.Context) error {
	now := time.Now().UTC()
	pools, err := w.store.ActiveSwapPools(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	for _, pool := range pools {
		if err := w.refreshPool(ctx, pool, now); err != nil {
			w.log.WithError(err).WithField("pool", pool).Error("feature: refresh failed")
		}
	}
	return nil
}

func (w *Worker) refreshPool(ctx context.Context, pool string, now time.Time) error {
	swaps24h, err := w.store.PoolSwapsSince(ctx, pool, now.Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if len(swaps24h) < minObservations {
		return nil // retain previous row; insufficient data to republish (spec §4.5)
	}

	atr24h := averageTrueRangePct(swaps24h)

	var swaps15m []models.SwapEvent
	cutoff15 := now.Add(-15 * time.Minute)
	for _, s := range swaps24h {
		if !s.TS.Before(cutoff15) {
			swaps15m = append(swaps15m, s)
		}
	}
	var atr15m *decimal.Decimal
	if len(swaps15m) >= 2 {
		v := averageTrueRangePct(swaps15m)
		atr15m = &v
	}

	vc := volumeConcentration(swaps24h)
	qvol := quoteVolume(swaps24h)
	wc := winConsistency(swaps24h)

	var swaps5m []models.SwapEvent
	cutoff5 := now.Add(-5 * time.Minute)
	for _, s := range swaps24h {
		if !s.TS.Before(cutoff5) {
			swaps5m = append(swaps5m, s)
		}
	}
	var cvdSlope *decimal.Decimal
	if len(swaps5m) >= 2 {
		v := cvdSlope5m(swaps5m)
		cvdSlope = &v
	}

	var rq *decimal.Decimal
	if atr15m != nil && !atr24h.IsZero() {
		v := atr15m.Div(atr24h)
		rq = &v
	}

	snap := models.FeatureSnapshot{
		Pool:              pool,
		TS:                now,
		ATRPct24h:         &atr24h,
		ATRPct15m:         atr15m,
		VCRatio:            &vc,
		CVDSlope5m:        cvdSlope,
		QuoteVolume24h:    &qvol,
		WinConsistency:    &wc,
		ReversionQuotient: rq,
		Obs:               len(swaps24h),
	}
	return w.store.UpsertFeatures(ctx, snap)
}

// averageTrueRangePct is the mean absolute percentage move between
// consecutive swap prices over the window, expressed as a fraction (0.01 = 1%).
func averageTrueRangePct(swaps []models.SwapEvent) decimal.Decimal {
	if len(swaps) < 2 {
		return decimal.Zero
	}
	sum := decimal.Zero
	n := 0
	for i := 1; i < len(swaps); i++ {
		prev, cur := swaps[i-1].Price, swaps[i].Price
		if prev.IsZero() {
			continue
		}
		move := cur.Sub(prev).Abs().Div(prev)
		sum = sum.Add(move)
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// volumeConcentration is the largest single trade's share of total quote
// volume over the window — a high ratio flags one dominant trade (spec §4.5's
// "vc_ratio", used by the SCF5 rule's VC_MAX threshold).
func volumeConcentration(swaps []models.SwapEvent) decimal.Decimal {
	total := decimal.Zero
	max := decimal.Zero
	for _, s := range swaps {
		amt := s.QuoteAmt.Abs()
		total = total.Add(amt)
		if amt.GreaterThan(max) {
			max = amt
		}
	}
	if total.IsZero() {
		return decimal.Zero
	}
	return max.Div(total)
}

// quoteVolume sums absolute quote volume over the window — used as the
// liquidity-thinness proxy for the SCF5 rule's LT check, which passes when
// this volume is at or below LT_MAX (a thinly traded pool).
func quoteVolume(swaps []models.SwapEvent) decimal.Decimal {
	total := decimal.Zero
	for _, s := range swaps {
		total = total.Add(s.QuoteAmt.Abs())
	}
	return total
}

// winConsistency is the dominant side's share of trade count over the
// window — the SCF5 rule's WC_MIN threshold requires most trades agree on
// direction before treating a pool as trending rather than choppy.
func winConsistency(swaps []models.SwapEvent) decimal.Decimal {
	if len(swaps) == 0 {
		return decimal.Zero
	}
	buys := 0
	for _, s := range swaps {
		if s.Side == models.SideBuy {
			buys++
		}
	}
	sells := len(swaps) - buys
	dominant := buys
	if sells > dominant {
		dominant = sells
	}
	return decimal.NewFromInt(int64(dominant)).Div(decimal.NewFromInt(int64(len(swaps))))
}

// cvdSlope5m is the per-minute slope of cumulative signed volume (buys
// positive, sells negative) over the last 5 minutes of swaps.
func cvdSlope5m(swaps []models.SwapEvent) decimal.Decimal {
	cvd := decimal.Zero
	first := swaps[0].TS
	last := swaps[0].TS
	for _, s := range swaps {
		signed := s.QuoteAmt.Abs()
		if s.Side == models.SideSell {
			signed = signed.Neg()
		}
		cvd = cvd.Add(signed)
		if s.TS.Before(first) {
			first = s.TS
		}
		if s.TS.After(last) {
			last = s.TS
		}
	}
	minutes := last.Sub(first).Minutes()
	if minutes <= 0 {
		return decimal.Zero
	}
	return cvd.Div(decimal.NewFromFloat(minutes))
}
