// Package executor turns detector signals into positions (spec §4.7): a
// paper executor that simulates entries with no real transaction, and a
// live-stub executor documenting the contract a real trading executor must
// fill. Grounded on executor_paper.py / executor_live.py.
package executor

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Mode selects which fill model an Executor uses.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Fill is what a Mode's fill model returns for one signal.
type Fill struct {
	Size        decimal.Decimal
	EntryPx     decimal.Decimal
	SlippageBps int
}

// fillModel produces a Fill for a signal. Paper and live-stub each implement
// this distinctly; a real live executor would replace liveFill with an
// actual swap submission.
type fillModel func(ctx context.Context, sig models.DetectorSignal) (Fill, error)

// Executor polls detector_signal for unexecuted signals and opens a position
// for each, using the configured fill model.
type Executor struct {
	store        *store.Store
	mode         Mode
	fill         fillModel
	pollInterval time.Duration
	windowMin    int
	batch        int
	log          *logrus.Entry
}

// New builds an Executor for the given mode.
func New(st *store.Store, mode Mode, pollInterval time.Duration, windowMin, batch int, log *logrus.Entry) *Executor {
	e := &Executor{store: st, mode: mode, pollInterval: pollInterval, windowMin: windowMin, batch: batch, log: log}
	switch mode {
	case ModeLive:
		e.fill = liveFill
	default:
		e.fill = paperFill
	}
	return e
}

// Run polls until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				e.log.WithError(err).Error("executor: tick failed")
			}
		}
	}
}

func (e *Executor) tick(ctx context.Context) error {
	signals, err := e.store.UnexecutedSignals(ctx, e.windowMin, e.batch)
	if err != nil {
		return err
	}
	for _, sig := range signals {
		if err := e.openPosition(ctx, sig); err != nil {
			e.log.WithError(err).WithField("pool", sig.Pool).Error("executor: open position failed")
		}
	}
	return nil
}

func (e *Executor) openPosition(ctx context.Context, sig models.DetectorSignal) error {
	fill, err := e.fill(ctx, sig)
	if err != nil {
		return err
	}

	execMode := models.ExecModePaper
	if e.mode == ModeLive {
		execMode = models.ExecModeLiveStub
	}

	pos := models.Position{
		ID:          uuid.New(),
		OpenedAt:    time.Now().UTC(),
		Pool:        sig.Pool,
		Size:        fill.Size,
		EntryPx:     fill.EntryPx,
		SlippageBps: fill.SlippageBps,
		State:       models.PositionOpen,
		Status:      "open",
		SignalType:  sig.SignalType,
		Reason:      sig.Reason,
		EntryPrice:  fill.EntryPx,
		Meta: models.PositionMeta{
			SignalID: strconv.FormatInt(sig.ID, 10),
			Source:   "detector",
			Mode:     execMode,
		},
	}
	return e.store.InsertPosition(ctx, pos)
}
