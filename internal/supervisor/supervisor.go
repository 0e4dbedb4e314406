// Package supervisor restarts long-running worker loops with exponential
// backoff, replacing the Python original's subprocess-per-worker Orchestrator
// with goroutines and context.Context cancellation — the idiomatic Go
// reshape spec §9's own redesign note calls for. Grounded on scf_runner.py's
// Orchestrator/WorkerSpec/restart-backoff formula.
package supervisor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WorkerFunc is one supervised loop. It should run until ctx is cancelled,
// returning ctx.Err() in that case; any other returned error is treated as a
// crash worth restarting.
type WorkerFunc func(ctx context.Context) error

// WorkerSpec names one supervised worker.
type WorkerSpec struct {
	Name string
	Run  WorkerFunc
}

const (
	baseBackoff = 2 * time.Second
	maxBackoff  = 60 * time.Second
)

// Supervisor runs a fixed set of WorkerSpecs, restarting any that exit
// unexpectedly with exponential backoff, until its context is cancelled.
type Supervisor struct {
	specs []WorkerSpec
	log   *logrus.Entry
}

// New builds a Supervisor over the given workers.
func New(log *logrus.Entry, specs ...WorkerSpec) *Supervisor {
	return &Supervisor{specs: specs, log: log}
}

// Run starts every worker and blocks until ctx is cancelled and all workers
// have exited.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, spec := range s.specs {
		wg.Add(1)
		go func(spec WorkerSpec) {
			defer wg.Done()
			s.superviseOne(ctx, spec)
		}(spec)
	}
	wg.Wait()
}

func (s *Supervisor) superviseOne(ctx context.Context, spec WorkerSpec) {
	exitCount := 0
	for {
		err := spec.Run(ctx)
		if ctx.Err() != nil {
			s.log.WithField("worker", spec.Name).Info("supervisor: worker stopped, context cancelled")
			return
		}
		exitCount++
		s.log.WithError(err).WithFields(logrus.Fields{
			"worker":     spec.Name,
			"exit_count": exitCount,
		}).Warn("supervisor: worker exited, restarting")

		backoff := restartBackoff(exitCount)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// restartBackoff is scf_runner.py's formula: max(2s, base*2^(exitCount-1)),
// capped at 60s.
func restartBackoff(exitCount int) time.Duration {
	d := baseBackoff * time.Duration(math.Pow(2, float64(exitCount-1)))
	if d < baseBackoff {
		d = baseBackoff
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
