package store

import (
	"context"
	"errors"

	"github.com/scfnet/scf-engine/pkg/models"
)

// EnqueueTx idempotently records an observed signature (spec §4.1). A
// conflicting signature already in the queue is left untouched.
func (s *Store) EnqueueTx(ctx context.Context, sig, programID string, slot int64) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO tx_queue (signature, program_id, slot, status)
		VALUES ($1, $2, $3, 'queued')
		ON CONFLICT (signature) DO NOTHING`,
		sig, programID, slot)
	return err
}

// ClaimTxBatch claims up to limit queued rows for resolution using
// FOR UPDATE SKIP LOCKED, so concurrent resolver instances never double-claim
// a row — grounded on worker_resolve.py's claim query.
func (s *Store) ClaimTxBatch(ctx context.Context, limit int) ([]models.TxQueue, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT signature, program_id, slot, status, retries, last_error, enqueued_at
		FROM tx_queue
		WHERE status = 'queued'
		ORDER BY slot ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, err
	}
	var claimed []models.TxQueue
	for rows.Next() {
		var t models.TxQueue
		if err := rows.Scan(&t.Signature, &t.ProgramID, &t.Slot, &t.Status, &t.Retries, &t.LastError, &t.EnqueuedAt); err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, tx.Commit(ctx)
	}

	sigs := make([]string, len(claimed))
	for i, t := range claimed {
		sigs[i] = t.Signature
	}
	if _, err := tx.Exec(ctx, `UPDATE tx_queue SET status = 'resolving' WHERE signature = ANY($1)`, sigs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkResolved flips a claimed row to resolved.
func (s *Store) MarkResolved(ctx context.Context, sig string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE tx_queue SET status = 'resolved' WHERE signature = $1`, sig)
	return err
}

// MarkResolveFailure records a failed resolve attempt, truncating last_error
// to 255 bytes and moving the row to the terminal 'error' status once its
// retries reach MaxResolveRetries (spec §7).
func (s *Store) MarkResolveFailure(ctx context.Context, sig string, resolveErr error) error {
	msg := resolveErr.Error()
	if len(msg) > 255 {
		msg = msg[:255]
	}
	cmd, err := s.Pool.Exec(ctx, `
		UPDATE tx_queue
		SET retries = retries + 1,
		    last_error = $2,
		    status = CASE WHEN retries + 1 >= $3 THEN 'error' ELSE 'queued' END
		WHERE signature = $1`,
		sig, msg, models.MaxResolveRetries)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("store: MarkResolveFailure: no such signature")
	}
	return nil
}
