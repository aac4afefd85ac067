// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the booking events queue.
const (
	EventHoldCreated      = "booking.hold_created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingNoShow    = "booking.no_show"
	EventHoldExpired      = "booking.hold_expired"
)

// BookingEvent is published whenever a booking changes state.  It carries
// enough information for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type BookingEvent struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	BookingID     uint64  `json:"booking_id"`
	CompanyID     uint64  `json:"company_id"`
	BoatID        *uint64 `json:"boat_id,omitempty"`
	Status        string  `json:"status"`
	StartsAt      string  `json:"starts_at"`
	EndsAt        string  `json:"ends_at"`
	DepositPaid   bool    `json:"deposit_paid"`
	Reason        string  `json:"reason,omitempty"`
	RefundPercent *int    `json:"refund_percent,omitempty"`
	ActorID       uint64  `json:"actor_id,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
