// Package detector is the SCF5 rule engine (spec §4.6): every poll interval
// it sweeps recent feature snapshots, evaluates the five-condition rule, and
// atomically inserts a dedup-guarded signal for every pool that passes.
// Grounded on detector.py's candidate-column lookup and dedup-insert shape.
package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Detector sweeps features_latest on a fixed interval.
type Detector struct {
	store        *store.Store
	thresholds   config.Thresholds
	pollInterval time.Duration
	dedupSec     int
	log          *logrus.Entry
	onSignal     func(models.DetectorSignal)
}

// New builds a Detector.
func New(st *store.Store, thresholds config.Thresholds, pollInterval time.Duration, dedupSec int, log *logrus.Entry) *Detector {
	return &Detector{store: st, thresholds: thresholds, pollInterval: pollInterval, dedupSec: dedupSec, log: log}
}

// OnSignal registers a callback invoked for every newly inserted signal
// (internal/alerts wires this to broadcast over the dashboard hub).
func (d *Detector) OnSignal(fn func(models.DetectorSignal)) {
	d.onSignal = fn
}

// Run polls until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				d.log.WithError(err).Error("detector: tick failed")
			}
		}
	}
}

func (d *Detector) tick(ctx context.Context) error {
	snapshots, err := d.store.RecentFeatures(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	for _, snap := range snapshots {
		view := newFeatureView(snap)
		pass, reason := Evaluate(view, d.thresholds)
		if !pass {
			continue
		}
		sig := models.DetectorSignal{
			Pool:            snap.Pool,
			SignalType:      models.SignalLong,
			Reason:          reason,
			FeatureSnapshot: snap.Raw,
			CreatedAt:       time.Now().UTC(),
		}
		inserted, err := d.store.InsertSignalIfAbsent(ctx, sig, d.dedupSec)
		if err != nil {
			d.log.WithError(err).WithField("pool", snap.Pool).Error("detector: insert signal failed")
			continue
		}
		if inserted && d.onSignal != nil {
			d.onSignal(sig)
		}
	}
	return d.store.DetectorHeartbeat(ctx)
}

// FeatureView is the typed lookup surface over one FeatureSnapshot's
// candidate columns — the spec's redesign of the original's dynamic dict
// lookup (spec §9) into explicit, named accessors with a raw fallback.
type FeatureView struct {
	snap models.FeatureSnapshot
}

func newFeatureView(snap models.FeatureSnapshot) FeatureView {
	return FeatureView{snap: snap}
}

// FeatureViewOf builds a FeatureView over snap for callers outside this
// package (internal/shadow evaluates the same snapshots against an
// alternate threshold set).
func FeatureViewOf(snap models.FeatureSnapshot) FeatureView {
	return newFeatureView(snap)
}

// lookup resolves a candidate column by name, preferring the typed field,
// falling back to the raw JSON map (so a pool whose row predates a newly
// added column degrades to "missing" rather than panicking).
func (v FeatureView) lookup(name string) (decimal.Decimal, bool) {
	switch name {
	case "vc_ratio":
		return deref(v.snap.VCRatio)
	case "ofs":
		return deref(v.snap.CVDSlope5m)
	case "lt":
		return deref(v.snap.QuoteVolume24h)
	case "wc":
		return deref(v.snap.WinConsistency)
	case "rq":
		return deref(v.snap.ReversionQuotient)
	}
	raw, ok := v.snap.Raw[name]
	if !ok {
		return decimal.Zero, false
	}
	switch t := raw.(type) {
	case decimal.Decimal:
		return t, true
	case float64:
		return decimal.NewFromFloat(t), true
	}
	return decimal.Zero, false
}

func deref(d *decimal.Decimal) (decimal.Decimal, bool) {
	if d == nil {
		return decimal.Zero, false
	}
	return *d, true
}

// check is one of the five SCF5 conditions.
type check struct {
	name   string
	column string
	pass   func(value, threshold decimal.Decimal) bool
	thresh decimal.Decimal
}

// Evaluate runs the five-condition SCF5 rule against one feature view,
// returning whether the pool passes and a reason string. Reason taxonomy
// (spec §4.6): "missing:<keys>" when a candidate column is absent,
// "SCF5:<names>" listing the thresholds that passed when the rule fires.
func Evaluate(v FeatureView, th config.Thresholds) (bool, string) {
	checks := []check{
		{"VC", "vc_ratio", decimal.Decimal.LessThanOrEqual, th.VCMax},
		{"OFS", "ofs", func(val, t decimal.Decimal) bool { return val.Abs().LessThanOrEqual(t) }, th.OFSMax},
		{"LT", "lt", decimal.Decimal.LessThanOrEqual, th.LTMax},
		{"WC", "wc", decimal.Decimal.GreaterThanOrEqual, th.WCMin},
		{"RQ", "rq", decimal.Decimal.LessThanOrEqual, th.RQMax},
	}

	var missing []string
	var passed []string
	for _, c := range checks {
		val, ok := v.lookup(c.column)
		if !ok {
			missing = append(missing, c.column)
			continue
		}
		if !c.pass(val, c.thresh) {
			return false, fmt.Sprintf("fail:%s", c.name)
		}
		passed = append(passed, c.name)
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing:%s", strings.Join(missing, ","))
	}
	return true, fmt.Sprintf("SCF5:%s", strings.Join(passed, "+"))
}
