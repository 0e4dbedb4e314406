// Package health runs the periodic DB health snapshot, grounded on
// scf_runner.py's Health class.
package health

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// Ticker logs a row-count + freshness snapshot on a fixed interval.
type Ticker struct {
	store    *store.Store
	interval time.Duration
	log      *logrus.Entry
}

// New builds a health Ticker.
func New(st *store.Store, interval time.Duration, log *logrus.Entry) *Ticker {
	return &Ticker{store: st, interval: interval, log: log}
}

// Run polls until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, err := t.store.Snapshot(ctx)
			if err != nil {
				t.log.WithError(err).Error("health: snapshot failed")
				continue
			}
			fields := logrus.Fields{
				"tx_queue":        snap.TxQueue,
				"tx_raw":          snap.TxRaw,
				"swap_event":      snap.SwapEvent,
				"lp_event":        snap.LpEvent,
				"authority_event": snap.AuthorityEvent,
				"features_latest": snap.FeaturesLatest,
				"detector_signal": snap.DetectorSignal,
				"position":        snap.Position,
			}
			if snap.SwapEventMaxAge != nil {
				fields["swap_event_age_sec"] = snap.SwapEventMaxAge.Seconds()
			}
			if snap.LpEventMaxAge != nil {
				fields["lp_event_age_sec"] = snap.LpEventMaxAge.Seconds()
			}
			t.log.WithFields(fields).Info("health: snapshot")
		}
	}
}
