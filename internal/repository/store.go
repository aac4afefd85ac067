package repository

import (
	"context"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// OccupancyReader answers the two questions the availability check asks
// of storage.  Implementations may return a superset of the relevant rows;
// callers apply the exact overlap rule themselves.
type OccupancyReader interface {
	// OccupyingBookings returns bookings on boatID that may occupy window
	// at instant now.
	OccupyingBookings(ctx context.Context, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error)
	// BlocksFor returns blocks that apply to boatID (its own blocks plus
	// global ones) and may overlap window.  A nil boatID returns only
	// global blocks.
	BlocksFor(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error)
}

// HoldTx is the view of the store available while a boat is locked.
type HoldTx interface {
	OccupancyReader
	InsertBooking(ctx context.Context, b *model.Booking) error
}

// BookingFilter narrows a booking listing.  Zero values mean "any".
type BookingFilter struct {
	BoatID *uint64
	Status model.BookingStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

// HoldCursor is a position in the (hold_expires_at, id) order the sweeper
// pages through.  The zero value starts from the beginning.
type HoldCursor struct {
	ExpiresAt time.Time
	ID        uint64
}

// After reports whether b sorts after the cursor.
func (c HoldCursor) After(b model.Booking) bool {
	if c.ID == 0 {
		return true
	}
	if b.HoldExpiresAt == nil {
		return false
	}
	if !b.HoldExpiresAt.Equal(c.ExpiresAt) {
		return b.HoldExpiresAt.After(c.ExpiresAt)
	}
	return b.ID > c.ID
}

// WaitlistFilter narrows a waitlist listing.
type WaitlistFilter struct {
	Status model.WaitlistStatus
	Date   string
}
