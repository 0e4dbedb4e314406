// Package shadow runs an alternate SCF5 threshold set against the same
// feature snapshots the live detector sees, recording only where the two
// diverge — giving threshold tuning an audit trail before a change goes
// live. Adapted from internal/shadow/shadow_runner.go's production-vs-shadow
// comparison pattern. Supplemental feature: named by no Non-goal, not
// required by spec.md, added per SPEC_FULL.md §12.
package shadow

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/internal/detector"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// Runner evaluates production and shadow thresholds over the same features
// and persists any pass/fail divergence.
type Runner struct {
	store        *store.Store
	production   config.Thresholds
	shadow       config.Thresholds
	pollInterval time.Duration
	log          *logrus.Entry
}

// New builds a shadow Runner. shadow is typically production with one
// threshold nudged, so operators can see what would have fired differently.
func New(st *store.Store, production, shadow config.Thresholds, pollInterval time.Duration, log *logrus.Entry) *Runner {
	return &Runner{store: st, production: production, shadow: shadow, pollInterval: pollInterval, log: log}
}

// Run polls until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.log.WithError(err).Error("shadow: tick failed")
			}
		}
	}
}

func (r *Runner) tick(ctx context.Context) error {
	snapshots, err := r.store.RecentFeatures(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	for _, snap := range snapshots {
		prodPass, prodReason := detector.Evaluate(detector.FeatureViewOf(snap), r.production)
		shadowPass, shadowReason := detector.Evaluate(detector.FeatureViewOf(snap), r.shadow)
		if prodPass == shadowPass {
			continue
		}
		if err := r.store.InsertDrift(ctx, snap.Pool, prodPass, shadowPass, prodReason, shadowReason); err != nil {
			r.log.WithError(err).WithField("pool", snap.Pool).Error("shadow: insert drift failed")
		}
	}
	return nil
}
