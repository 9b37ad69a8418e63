// Package store persists ledger snapshots. The ledger is the source of
// truth; a store only has to return the last snapshot it accepted, in
// the order it was given, so implementations stay simple: one key-value
// blob (Redis) or one transactional table rewrite (MySQL).
package store

import (
	"context"

	"github.com/transitdesk/busboard/internal/model"
)

// Store loads and saves the complete booking snapshot.
type Store interface {
	// Load returns the last saved snapshot in its original order, or an
	// empty slice when nothing has been saved yet.
	Load(ctx context.Context) ([]model.Booking, error)
	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, bookings []model.Booking) error
}
