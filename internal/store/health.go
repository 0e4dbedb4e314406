package store

import (
	"context"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
)

// Snapshot gathers row counts and event-table freshness for the health
// ticker, grounded on scf_runner.py's Health class.
func (s *Store) Snapshot(ctx context.Context) (models.HealthSnapshot, error) {
	var h models.HealthSnapshot
	counts := []struct {
		table string
		dest  *int64
	}{
		{"tx_queue", &h.TxQueue},
		{"tx_raw", &h.TxRaw},
		{"swap_event", &h.SwapEvent},
		{"lp_event", &h.LpEvent},
		{"authority_event", &h.AuthorityEvent},
		{"features_latest", &h.FeaturesLatest},
		{"detector_signal", &h.DetectorSignal},
		{"position", &h.Position},
	}
	for _, c := range counts {
		if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(c.dest); err != nil {
			return h, err
		}
	}

	var swapMax, lpMax *time.Time
	if err := s.Pool.QueryRow(ctx, `SELECT MAX(ts) FROM swap_event`).Scan(&swapMax); err != nil {
		return h, err
	}
	if err := s.Pool.QueryRow(ctx, `SELECT MAX(ts) FROM lp_event`).Scan(&lpMax); err != nil {
		return h, err
	}
	if swapMax != nil {
		age := time.Since(*swapMax)
		h.SwapEventMaxAge = &age
	}
	if lpMax != nil {
		age := time.Since(*lpMax)
		h.LpEventMaxAge = &age
	}
	return h, nil
}
