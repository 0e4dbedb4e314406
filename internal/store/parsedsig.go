package store

import "context"

// MarkParsed upserts the per-signature parse watermark (spec §4.2), recording
// which of the three independent parsers have *processed* this signature —
// has_swap/has_lp/has_auth is true once that parser has looked at the
// signature, whether or not it emitted a row, so a program-mismatch or
// no-zero-emission skip still advances that parser's own watermark.
func (s *Store) MarkParsed(ctx context.Context, sig string, hasSwap, hasLP, hasAuth bool) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO parsed_sig (signature, has_swap, has_lp, has_auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (signature) DO UPDATE SET
			has_swap = parsed_sig.has_swap OR EXCLUDED.has_swap,
			has_lp   = parsed_sig.has_lp   OR EXCLUDED.has_lp,
			has_auth = parsed_sig.has_auth OR EXCLUDED.has_auth`,
		sig, hasSwap, hasLP, hasAuth)
	return err
}
