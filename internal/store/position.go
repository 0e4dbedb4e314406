package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// InsertPosition opens a new position along with its first (entry) fill,
// atomically, so a crash between the two never leaves an entry-less
// position (spec §4.7).
func (s *Store) InsertPosition(ctx context.Context, p models.Position) error {
	metaRaw, err := json.Marshal(p.Meta)
	if err != nil {
		return err
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO position (id, opened_at, pool, token, size, entry_px, slippage_bps,
			state, status, signal_type, reason, entry_price, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.OpenedAt, p.Pool, p.Token, p.Size, p.EntryPx, p.SlippageBps,
		string(p.State), p.Status, string(p.SignalType), p.Reason, p.EntryPrice, metaRaw); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO fill (pos_id, side, px, qty) VALUES ($1, $2, $3, $4)`,
		p.ID, string(models.FillEntry), p.EntryPx, p.Size); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// OpenPositions returns every position still in the OPEN state — the exit
// worker's poll input (spec §4.8).
func (s *Store) OpenPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, opened_at, pool, token, size, entry_px, slippage_bps, state, status,
		       signal_type, reason, entry_price, meta
		FROM position
		WHERE state = 'OPEN'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(rs rowScanner) (models.Position, error) {
	var (
		p         models.Position
		state     string
		signal    string
		metaRaw   []byte
	)
	if err := rs.Scan(&p.ID, &p.OpenedAt, &p.Pool, &p.Token, &p.Size, &p.EntryPx, &p.SlippageBps,
		&state, &p.Status, &signal, &p.Reason, &p.EntryPrice, &metaRaw); err != nil {
		return models.Position{}, err
	}
	p.State = models.PositionState(state)
	p.SignalType = models.SignalType(signal)
	if err := json.Unmarshal(metaRaw, &p.Meta); err != nil {
		return models.Position{}, err
	}
	return p, nil
}

// ListPositions returns the most recently opened positions, newest first —
// the dashboard's GET /positions input.
func (s *Store) ListPositions(ctx context.Context, limit int) ([]models.Position, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, opened_at, pool, token, size, entry_px, slippage_bps, state, status,
		       signal_type, reason, entry_price, meta
		FROM position
		ORDER BY opened_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPosition fetches one position by id.
func (s *Store) GetPosition(ctx context.Context, id uuid.UUID) (models.Position, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, opened_at, pool, token, size, entry_px, slippage_bps, state, status,
		       signal_type, reason, entry_price, meta
		FROM position WHERE id = $1`, id)
	return scanPosition(row)
}

// UpdatePositionMeta persists a position's mutated meta and size in one
// UPDATE statement on the pool, outside any transaction. Partial exits do not
// use it: ApplyPartialExit updates size and meta inside its own transaction.
func (s *Store) UpdatePositionMeta(ctx context.Context, id uuid.UUID, size decimal.Decimal, meta models.PositionMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `UPDATE position SET size = $2, meta = $3 WHERE id = $1`, id, size, raw)
	return err
}

// ClosePosition marks a position CLOSED.
func (s *Store) ClosePosition(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `UPDATE position SET state = 'CLOSED', status = 'closed' WHERE id = $1`, id)
	return err
}
