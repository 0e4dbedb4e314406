// Package ingest is the Log Ingestor (spec §4.1): one log subscription per
// configured program ID, feeding observed signatures into tx_queue.
// Adapted from internal/mempool/poller.go's dedup-then-enqueue loop shape,
// restructured around a persistent subscription instead of a poll.
package ingest

import (
	"context"

	"github.com/scfnet/scf-engine/internal/solana"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// Ingestor runs one WSClient per configured program and enqueues every
// successful (non-erroring) signature it observes.
type Ingestor struct {
	store    *store.Store
	programs map[string]string // program id -> label
	endpoint string
	log      *logrus.Entry
}

// New builds an Ingestor for the given program set.
func New(st *store.Store, endpoint string, programs map[string]string, log *logrus.Entry) *Ingestor {
	return &Ingestor{store: st, programs: programs, endpoint: endpoint, log: log}
}

// Run subscribes to every configured program and blocks until ctx is
// cancelled. Each program's feed runs on its own goroutine (spec §5:
// "Log Ingestor — one goroutine per subscribed program").
func (in *Ingestor) Run(ctx context.Context) error {
	out := make(chan notifFromProgram, 256)

	for programID := range in.programs {
		programID := programID
		client := solana.NewWSClient(in.endpoint, solana.LogsFilter{MentionsProgramID: programID}, in.log)
		ch := make(chan solana.LogNotification, 64)
		go client.Run(ctx, ch)
		go func() {
			for n := range ch {
				select {
				case out <- notifFromProgram{programID: programID, notif: n}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-out:
			if item.notif.Err {
				continue // on-chain-failed transactions carry no usable swap/LP state
			}
			if err := in.store.EnqueueTx(ctx, item.notif.Signature, item.programID, item.notif.Slot); err != nil {
				in.log.WithError(err).WithField("signature", item.notif.Signature).Error("ingest: enqueue failed")
			}
		}
	}
}

type notifFromProgram struct {
	programID string
	notif     solana.LogNotification
}
