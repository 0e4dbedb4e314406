// Package resolve is the Signature Resolver (spec §4.2): claims queued
// signatures with FOR UPDATE SKIP LOCKED, fetches the full transaction via
// RPC, and stores it in tx_raw — grounded on worker_resolve.py's claim query.
package resolve

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/internal/solana"
	"github.com/scfnet/scf-engine/internal/store"
	"github.com/sirupsen/logrus"
)

// Resolver polls tx_queue for claimable rows and resolves them via RPC.
type Resolver struct {
	store        *store.Store
	rpc          *solana.HTTPClient
	pollInterval time.Duration
	batch        int
	log          *logrus.Entry
}

// New builds a Resolver.
func New(st *store.Store, rpc *solana.HTTPClient, pollInterval time.Duration, batch int, log *logrus.Entry) *Resolver {
	return &Resolver{store: st, rpc: rpc, pollInterval: pollInterval, batch: batch, log: log}
}

// Run polls until ctx is cancelled.
func (r *Resolver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.log.WithError(err).Error("resolve: tick failed")
			}
		}
	}
}

func (r *Resolver) tick(ctx context.Context) error {
	claimed, err := r.store.ClaimTxBatch(ctx, r.batch)
	if err != nil {
		return err
	}
	for _, tx := range claimed {
		r.resolveOne(ctx, tx.Signature, tx.Slot)
	}
	return nil
}

func (r *Resolver) resolveOne(ctx context.Context, sig string, slot int64) {
	payload, err := r.rpc.RetryGetTransaction(ctx, sig, 4)
	if err != nil {
		if markErr := r.store.MarkResolveFailure(ctx, sig, err); markErr != nil {
			r.log.WithError(markErr).WithField("signature", sig).Error("resolve: failed to record resolve failure")
		}
		return
	}
	if err := r.store.InsertRaw(ctx, sig, slot, payload); err != nil {
		r.log.WithError(err).WithField("signature", sig).Error("resolve: insert raw failed")
		_ = r.store.MarkResolveFailure(ctx, sig, err)
		return
	}
	if err := r.store.MarkResolved(ctx, sig); err != nil {
		r.log.WithError(err).WithField("signature", sig).Error("resolve: mark resolved failed")
	}
}
