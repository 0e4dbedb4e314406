// Package exit is the Exit Worker (spec §4.8): on a fixed poll interval it
// walks every OPEN position, looks up its pool's latest swap price, and
// applies take-profit/stop-loss exits — full closes taking precedence over
// any still-pending partial level. Grounded on exit_worker.py's tag-guarded
// partial-exit scheme, redesigned around the typed PartialTag (spec §9).
package exit

import (
	"context"
	"errors"
	"time"

	"github.com/scfnet/scf-engine/internal/config"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrInvariant is returned by evaluate when the exit worker observes a state
// the system promises never to reach — e.g. a partial exit driving size
// negative. tick logs it at error and leaves that position untouched for the
// rest of the tick; it is not returned to the supervisor, and the position is
// evaluated again on the next tick.
var ErrInvariant = errors.New("exit: invariant violation")

// Worker evaluates exit conditions for every open position on a fixed interval.
type Worker struct {
	store        *store.Store
	pollInterval time.Duration
	tpMult       decimal.Decimal
	slMult       decimal.Decimal
	tpPartials   []config.PartialLevel
	slPartials   []config.PartialLevel
	log          *logrus.Entry
	onExit       func(models.ExitEvent)
}

// New builds an exit Worker.
func New(st *store.Store, pollInterval time.Duration, tpMult, slMult decimal.Decimal, tpPartials, slPartials []config.PartialLevel, log *logrus.Entry) *Worker {
	return &Worker{
		store: st, pollInterval: pollInterval,
		tpMult: tpMult, slMult: slMult,
		tpPartials: tpPartials, slPartials: slPartials,
		log: log,
	}
}

// OnExit registers a callback invoked for every exit applied (internal/alerts
// wires this to broadcast over the dashboard hub).
func (w *Worker) OnExit(fn func(models.ExitEvent)) {
	w.onExit = fn
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
				w.log.WithError(err).Error("exit: tick failed")
			}
		}
	}
}

func (w *Worker) tick(ctx context.Context) error {
	positions, err := w.store.OpenPositions(ctx)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		if err := w.evaluate(ctx, pos); err != nil {
			if errors.Is(err, ErrInvariant) {
				w.log.WithField("position", pos.ID).Error("exit: invariant violation, leaving position untouched")
				continue
			}
			w.log.WithError(err).WithField("position", pos.ID).Error("exit: evaluate failed")
		}
	}
	return nil
}

func (w *Worker) evaluate(ctx context.Context, pos models.Position) error {
	latest, found, err := w.store.LatestPrice(ctx, pos.Pool)
	if err != nil {
		return err
	}
	if !found {
		return nil // no price yet for this pool; nothing to evaluate against
	}
	price := latest.Price

	tpPx := pos.EntryPx.Mul(w.tpMult)
	slPx := pos.EntryPx.Mul(w.slMult)

	// Full close takes precedence over any pending partial (spec §4.8).
	if price.GreaterThanOrEqual(tpPx) {
		return w.fullClose(ctx, pos, price, models.ExitTPHit)
	}
	if price.LessThanOrEqual(slPx) {
		return w.fullClose(ctx, pos, price, models.ExitSLHit)
	}

	if applied, err := w.applyPartials(ctx, pos, price, w.tpPartials, models.PartialTP, models.ExitTPPartial); applied || err != nil {
		return err
	}
	if applied, err := w.applyPartials(ctx, pos, price, w.slPartials, models.PartialSL, models.ExitSLPartial); applied || err != nil {
		return err
	}
	return nil
}

func (w *Worker) fullClose(ctx context.Context, pos models.Position, price decimal.Decimal, reason models.ExitReason) error {
	if err := w.store.ApplyFullClose(ctx, pos.ID, price, reason); err != nil {
		if errors.Is(err, store.ErrNegativeSize) {
			return ErrInvariant
		}
		return err
	}
	if w.onExit != nil {
		w.onExit(models.ExitEvent{PosID: pos.ID, Reason: reason, TS: time.Now().UTC()})
	}
	return nil
}

// applyPartials checks each configured level against the pool's move from
// entry, applying the first not-yet-taken level the price has reached.
// Levels are sorted ascending; only one fires per tick, matching
// exit_worker.py's single-level-per-pass behavior.
func (w *Worker) applyPartials(ctx context.Context, pos models.Position, price decimal.Decimal, levels []config.PartialLevel, side models.PartialSide, reason models.ExitReason) (bool, error) {
	for _, lvl := range levels {
		tag := models.PartialTag{Side: side, Level: lvl.Level}
		if pos.Meta.HasTaken(tag) {
			continue
		}
		reached := levelReached(pos.EntryPx, price, lvl.Level, side)
		if !reached {
			continue
		}
		qty := pos.Size.Mul(lvl.Ratio)
		if qty.IsZero() {
			continue
		}
		if err := w.store.ApplyPartialExit(ctx, pos.ID, tag, price, qty, reason); err != nil {
			if errors.Is(err, store.ErrNegativeSize) {
				return false, ErrInvariant
			}
			return false, err
		}
		if w.onExit != nil {
			w.onExit(models.ExitEvent{PosID: pos.ID, Reason: reason, TS: time.Now().UTC()})
		}
		return true, nil
	}
	return false, nil
}

// levelReached reports whether current_px/entry_px has crossed level in the
// direction side cares about (spec §4.8: current_px/entry_px >= level for a
// TP level, <= level for an SL level). level is the literal multiple stored
// in config.PartialLevel, not a percentage step.
func levelReached(entryPx, price, level decimal.Decimal, side models.PartialSide) bool {
	target := entryPx.Mul(level)
	if side == models.PartialTP {
		return price.GreaterThanOrEqual(target)
	}
	return price.LessThanOrEqual(target)
}
