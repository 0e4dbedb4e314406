package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// swallowNoRows turns pgx.ErrNoRows into a nil error for "found bool" style
// lookups, and passes every other error through unchanged.
func swallowNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
