package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// UpsertFeatures writes the latest per-pool feature row. Pools with
// insufficient data are never passed here — the feature worker retains the
// previous row by simply not calling this (spec §4.5).
func (s *Store) UpsertFeatures(ctx context.Context, f models.FeatureSnapshot) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO features_latest
			(pool, ts, atr_pct_15m, atr_pct_24h, vc_ratio, cvd_slope_5m,
			 quote_volume_24h, win_consistency, reversion_quotient, obs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (pool) DO UPDATE SET
			ts = EXCLUDED.ts,
			atr_pct_15m = EXCLUDED.atr_pct_15m,
			atr_pct_24h = EXCLUDED.atr_pct_24h,
			vc_ratio = EXCLUDED.vc_ratio,
			cvd_slope_5m = EXCLUDED.cvd_slope_5m,
			quote_volume_24h = EXCLUDED.quote_volume_24h,
			win_consistency = EXCLUDED.win_consistency,
			reversion_quotient = EXCLUDED.reversion_quotient,
			obs = EXCLUDED.obs`,
		f.Pool, f.TS, f.ATRPct15m, f.ATRPct24h, f.VCRatio, f.CVDSlope5m,
		f.QuoteVolume24h, f.WinConsistency, f.ReversionQuotient, f.Obs)
	return err
}

// RecentFeatures returns every pool's feature row updated since cutoff — the
// detector's and shadow evaluator's sweep input (spec §4.6).
func (s *Store) RecentFeatures(ctx context.Context, cutoff time.Time) ([]models.FeatureSnapshot, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT pool, ts, atr_pct_15m, atr_pct_24h, vc_ratio, cvd_slope_5m,
		       quote_volume_24h, win_consistency, reversion_quotient, obs
		FROM features_latest
		WHERE ts >= $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FeatureSnapshot
	for rows.Next() {
		var (
			pool                                   string
			ts                                      time.Time
			atr15, atr24, vc, cvd, qvol, wc, rq     *decimal.Decimal
			obs                                     int
		)
		if err := rows.Scan(&pool, &ts, &atr15, &atr24, &vc, &cvd, &qvol, &wc, &rq, &obs); err != nil {
			return nil, err
		}
		f := models.FeatureSnapshot{
			Pool:              pool,
			TS:                ts,
			ATRPct15m:         atr15,
			ATRPct24h:         atr24,
			VCRatio:           vc,
			CVDSlope5m:        cvd,
			QuoteVolume24h:    qvol,
			WinConsistency:    wc,
			ReversionQuotient: rq,
			Obs:               obs,
		}
		f.Raw = snapshotToRaw(f)
		out = append(out, f)
	}
	return out, rows.Err()
}

// snapshotToRaw builds the candidate-column map the detector performs its
// typed lookup against (spec §9's "dynamically typed feature row" redesign).
func snapshotToRaw(f models.FeatureSnapshot) map[string]any {
	raw := map[string]any{
		"pool": f.Pool,
		"ts":   f.TS,
		"obs":  f.Obs,
	}
	put := func(k string, v *decimal.Decimal) {
		if v != nil {
			raw[k] = v.InexactFloat64()
		}
	}
	put("atr_pct_15m", f.ATRPct15m)
	put("atr_pct_24h", f.ATRPct24h)
	put("vc_ratio", f.VCRatio)
	put("cvd_slope_5m", f.CVDSlope5m)
	put("quote_volume_24h", f.QuoteVolume24h)
	put("win_consistency", f.WinConsistency)
	put("reversion_quotient", f.ReversionQuotient)

	b, err := json.Marshal(raw)
	if err == nil {
		var back map[string]any
		if json.Unmarshal(b, &back) == nil {
			return back
		}
	}
	return raw
}
