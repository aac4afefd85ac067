package service

import (
	"context"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository"
)

// Storage contracts shared with the repository implementations.
type (
	OccupancyReader = repository.OccupancyReader
	HoldTx          = repository.HoldTx
	BookingFilter   = repository.BookingFilter
	WaitlistFilter  = repository.WaitlistFilter
	HoldCursor      = repository.HoldCursor
)

// BookingStore persists bookings.  Concurrency guarantees live here:
// WithBoatLock serialises check-then-insert per boat and ApplyTransition
// and ExpireHold are conditional updates.
type BookingStore interface {
	OccupancyReader
	// WithBoatLock runs fn while no other WithBoatLock caller can insert a
	// booking for the same boat.  It returns repository.ErrNotFound when
	// the boat is missing, inactive or owned by another company.  fn's
	// writes are committed only when fn returns nil.
	WithBoatLock(ctx context.Context, companyID uint64, boatID *uint64, fn func(tx HoldTx) error) error
	GetBooking(ctx context.Context, companyID, id uint64) (model.Booking, error)
	ListBookings(ctx context.Context, companyID uint64, f BookingFilter) ([]model.Booking, error)
	// ApplyTransition updates the booking only if its status is one of
	// t.From.  It reports whether a row changed.
	ApplyTransition(ctx context.Context, companyID, id uint64, t model.Transition) (bool, error)
	// ExpiredHolds lists up to limit pending holds whose deadline is at or
	// before now, ordered by (hold_expires_at, id) and strictly after the
	// cursor.
	ExpiredHolds(ctx context.Context, now time.Time, after HoldCursor, limit int) ([]model.Booking, error)
	// ExpireHold reclaims one hold if it is still pending and past its
	// deadline.  It reports whether a row changed.
	ExpireHold(ctx context.Context, id uint64, now time.Time) (bool, error)
}

// BlockStore persists blocked slots.
type BlockStore interface {
	// ListBlocks returns blocks that may overlap window.  With a boat it
	// returns that boat's blocks and global ones; without, every block of
	// the company.
	ListBlocks(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error)
	CreateBlock(ctx context.Context, b *model.BlockedSlot) error
	DeleteBlock(ctx context.Context, companyID, id uint64) error
}

// BoatStore persists the fleet.
type BoatStore interface {
	GetBoat(ctx context.Context, companyID, id uint64) (model.Boat, error)
	ListBoats(ctx context.Context, companyID uint64) ([]model.Boat, error)
	CreateBoat(ctx context.Context, b *model.Boat) error
}

// PricingStore persists pricing entries.
type PricingStore interface {
	ListPricing(ctx context.Context, companyID uint64, boatID *uint64) ([]model.PricingEntry, error)
	FindPricing(ctx context.Context, companyID, boatID uint64, durationMinutes int, packageType string) (model.PricingEntry, error)
	CreatePricing(ctx context.Context, p *model.PricingEntry) error
	UpdatePrice(ctx context.Context, companyID, id uint64, priceCents int64) (model.PricingEntry, error)
	DeletePricing(ctx context.Context, companyID, id uint64) error
}

// WaitlistStore persists waitlist entries.
type WaitlistStore interface {
	CreateWaitlist(ctx context.Context, w *model.WaitlistEntry) error
	ListWaitlist(ctx context.Context, companyID uint64, f WaitlistFilter) ([]model.WaitlistEntry, error)
	GetWaitlist(ctx context.Context, companyID, id uint64) (model.WaitlistEntry, error)
	// SetWaitlistStatus changes the status only if the current one is in
	// from.  It reports whether a row changed.
	SetWaitlistStatus(ctx context.Context, companyID, id uint64, to model.WaitlistStatus, from []model.WaitlistStatus) (bool, error)
}

// EventPublisher delivers booking lifecycle events.  Failures never fail
// the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }
