package store

import "context"

// InsertDrift records one shadow-vs-production rule divergence (internal/shadow).
func (s *Store) InsertDrift(ctx context.Context, pool string, prodPass, shadowPass bool, prodReason, shadowReason string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO shadow_signal_drift (pool, production_pass, shadow_pass, production_reason, shadow_reason)
		VALUES ($1, $2, $3, $4, $5)`,
		pool, prodPass, shadowPass, prodReason, shadowReason)
	return err
}
