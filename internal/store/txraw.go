package store

import (
	"context"
	"fmt"
)

// InsertRaw idempotently stores a resolved transaction payload.
func (s *Store) InsertRaw(ctx context.Context, sig string, slot int64, payload []byte) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO tx_raw (signature, slot, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (signature) DO NOTHING`,
		sig, slot, payload)
	return err
}

// parsedColumns whitelists the parsed_sig watermark columns callers may
// filter UnparsedRawBatch on, since the column name is interpolated into the
// query rather than bound as a parameter.
var parsedColumns = map[string]bool{"has_swap": true, "has_lp": true, "has_auth": true}

// UnparsedRawBatch returns raw rows with slot > afterSlot that the caller's
// own parser (identified by column, one of has_swap/has_lp/has_auth) has not
// yet processed, ordered by slot ascending — the parsers' cursor discipline
// (spec §4.2/§4.3/§4.4): never go backwards, never skip silently. Each of the
// three parsers tracks its own column so one parser claiming a signature
// first never starves the other two (spec §2's independent-parsers design).
func (s *Store) UnparsedRawBatch(ctx context.Context, column string, afterSlot int64, limit int) ([]RawRow, error) {
	if !parsedColumns[column] {
		return nil, fmt.Errorf("store: invalid parsed_sig column %q", column)
	}
	query := fmt.Sprintf(`
		SELECT r.signature, r.slot, r.payload
		FROM tx_raw r
		LEFT JOIN parsed_sig p ON p.signature = r.signature
		WHERE r.slot > $1 AND (p.signature IS NULL OR p.%s = FALSE)
		ORDER BY r.slot ASC
		LIMIT $2`, column)
	rows, err := s.Pool.Query(ctx, query, afterSlot, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawRow
	for rows.Next() {
		var r RawRow
		if err := rows.Scan(&r.Signature, &r.Slot, &r.Payload); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RawRow is one unparsed tx_raw row handed to the parser stages.
type RawRow struct {
	Signature string
	Slot      int64
	Payload   []byte
}
