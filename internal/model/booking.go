package model

import "time"

// BookingStatus is the lifecycle state of a charter booking.
type BookingStatus string

const (
	StatusPendingHold BookingStatus = "pending_hold"
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCompleted   BookingStatus = "completed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusNoShow      BookingStatus = "no_show"
	// StatusExpired is written only by the hold sweeper when a pending
	// hold outlives its deadline.  It is not reachable through any
	// user-triggered transition.
	StatusExpired BookingStatus = "expired"
)

// bookingTransitions lists the user-triggerable transitions.  Expiry of a
// pending hold is handled separately by the sweeper.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingHold: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusCompleted, StatusNoShow, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
	StatusExpired:     {},
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a legal
// user-triggered transition.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// SourcesFor returns every status from which target can be reached.  The
// result is what conditional updates use as their expected prior state.
func SourcesFor(target BookingStatus) []BookingStatus {
	var out []BookingStatus
	for _, from := range []BookingStatus{StatusPendingHold, StatusConfirmed} {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

// Booking is a single charter reservation.  It corresponds to a row in
// the `bookings` table.  Rows are never deleted; terminal statuses are
// kept for history.
//
// Fields:
//
//	BoatID        – nil when the booking is not assigned to a boat yet.
//	HoldExpiresAt – set only while Status is pending_hold.
//	CancelledAt, CancellationReason, RefundPercent – set on cancellation.
//	CompletedAt   – set on completion and on no-show.
type Booking struct {
	ID                 uint64        // bookings.id
	CompanyID          uint64        // bookings.company_id
	BoatID             *uint64       // bookings.boat_id (nullable)
	StartsAt           time.Time     // bookings.starts_at (UTC)
	EndsAt             time.Time     // bookings.ends_at (UTC)
	Status             BookingStatus // bookings.status
	DepositPaid        bool          // bookings.deposit_paid
	PriceCents         *int64        // bookings.price_cents (nullable)
	CustomerName       string        // bookings.customer_name
	CustomerContact    string        // bookings.customer_contact
	Passengers         int           // bookings.passengers
	HoldToken          string        // bookings.hold_token
	HoldExpiresAt      *time.Time    // bookings.hold_expires_at (nullable)
	CancelledAt        *time.Time    // bookings.cancelled_at (nullable)
	CancellationReason *string       // bookings.cancellation_reason (nullable)
	RefundPercent      *int          // bookings.refund_percent (nullable)
	CompletedAt        *time.Time    // bookings.completed_at (nullable)
	CreatedBy          uint64        // bookings.created_by
	CreatedAt          time.Time     // bookings.created_at
	UpdatedAt          time.Time     // bookings.updated_at
}

// Window returns the booking's half-open time interval.
func (b Booking) Window() Interval {
	return Interval{Start: b.StartsAt, End: b.EndsAt}
}

// Occupies reports whether the booking blocks other bookings on its boat
// at instant now.  Unassigned bookings never occupy.  A pending hold past
// its deadline no longer occupies even if the sweeper has not run yet.
func (b Booking) Occupies(now time.Time) bool {
	if b.BoatID == nil {
		return false
	}
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusPendingHold:
		return b.HoldExpiresAt != nil && b.HoldExpiresAt.After(now)
	}
	return false
}

// Transition describes a guarded status change applied by a conditional
// update.  From lists the statuses the row must currently be in.
type Transition struct {
	To                 BookingStatus
	From               []BookingStatus
	At                 time.Time
	DepositPaid        *bool
	CancellationReason *string
	RefundPercent      *int
	// RequireLiveHold additionally requires hold_expires_at > At.
	RequireLiveHold bool
}
