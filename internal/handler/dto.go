package handler

import (
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// BookingResponse is the wire form of a booking.
type BookingResponse struct {
	ID                 uint64  `json:"id"`
	BoatID             *uint64 `json:"boat_id"`
	StartsAt           string  `json:"starts_at"`
	EndsAt             string  `json:"ends_at"`
	Status             string  `json:"status"`
	DepositPaid        bool    `json:"deposit_paid"`
	PriceCents         *int64  `json:"price_cents,omitempty"`
	CustomerName       string  `json:"customer_name,omitempty"`
	CustomerContact    string  `json:"customer_contact,omitempty"`
	Passengers         int     `json:"passengers"`
	HoldToken          string  `json:"hold_token,omitempty"`
	HoldExpiresAt      *string `json:"hold_expires_at,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	RefundPercent      *int    `json:"refund_percent,omitempty"`
	CompletedAt        *string `json:"completed_at,omitempty"`
	CreatedBy          uint64  `json:"created_by"`
	CreatedAt          string  `json:"created_at"`
}

func rfc3339(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func optTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := rfc3339(*t)
	return &s
}

func newBookingResponse(b model.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		BoatID:             b.BoatID,
		StartsAt:           rfc3339(b.StartsAt),
		EndsAt:             rfc3339(b.EndsAt),
		Status:             string(b.Status),
		DepositPaid:        b.DepositPaid,
		PriceCents:         b.PriceCents,
		CustomerName:       b.CustomerName,
		CustomerContact:    b.CustomerContact,
		Passengers:         b.Passengers,
		HoldToken:          b.HoldToken,
		HoldExpiresAt:      optTime(b.HoldExpiresAt),
		CancelledAt:        optTime(b.CancelledAt),
		CancellationReason: b.CancellationReason,
		RefundPercent:      b.RefundPercent,
		CompletedAt:        optTime(b.CompletedAt),
		CreatedBy:          b.CreatedBy,
		CreatedAt:          rfc3339(b.CreatedAt),
	}
}

func newBookingsResponse(bs []model.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, newBookingResponse(b))
	}
	return out
}

// BlockedSlotResponse is the wire form of a blocked slot.
type BlockedSlotResponse struct {
	ID        uint64  `json:"id"`
	BoatID    *uint64 `json:"boat_id"`
	StartDate string  `json:"start_date"`
	StartTime *string `json:"start_time"`
	EndDate   string  `json:"end_date"`
	EndTime   *string `json:"end_time"`
	Reason    string  `json:"reason"`
	CreatedBy uint64  `json:"created_by"`
}

func newBlocksResponse(bs []model.BlockedSlot) []BlockedSlotResponse {
	out := make([]BlockedSlotResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, BlockedSlotResponse{
			ID:        b.ID,
			BoatID:    b.BoatID,
			StartDate: b.StartDate,
			StartTime: b.StartTime,
			EndDate:   b.EndDate,
			EndTime:   b.EndTime,
			Reason:    b.Reason,
			CreatedBy: b.CreatedBy,
		})
	}
	return out
}

// ConflictsResponse explains why an interval is not available.
type ConflictsResponse struct {
	Bookings []BookingResponse     `json:"bookings"`
	Blocks   []BlockedSlotResponse `json:"blocked_slots"`
}

func newConflictsResponse(c service.Conflicts) ConflictsResponse {
	return ConflictsResponse{Bookings: newBookingsResponse(c.Bookings), Blocks: newBlocksResponse(c.Blocks)}
}

// BoatResponse is the wire form of a boat.
type BoatResponse struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}

func newBoatsResponse(bs []model.Boat) []BoatResponse {
	out := make([]BoatResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, BoatResponse{ID: b.ID, Name: b.Name, Capacity: b.Capacity, IsActive: b.IsActive})
	}
	return out
}

// PricingResponse is the wire form of a pricing entry.
type PricingResponse struct {
	ID              uint64 `json:"id"`
	BoatID          uint64 `json:"boat_id"`
	DurationMinutes int    `json:"duration_minutes"`
	PackageType     string `json:"package_type"`
	PriceCents      int64  `json:"price_cents"`
}

func newPricingResponse(p model.PricingEntry) PricingResponse {
	return PricingResponse{
		ID:              p.ID,
		BoatID:          p.BoatID,
		DurationMinutes: p.DurationMinutes,
		PackageType:     p.PackageType,
		PriceCents:      p.PriceCents,
	}
}

// WaitlistResponse is the wire form of a waitlist entry.
type WaitlistResponse struct {
	ID              uint64  `json:"id"`
	CustomerName    string  `json:"customer_name"`
	CustomerContact string  `json:"customer_contact"`
	PreferredDate   string  `json:"preferred_date"`
	BoatID          *uint64 `json:"boat_id"`
	Passengers      int     `json:"passengers"`
	Notes           *string `json:"notes"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

func newWaitlistResponse(w model.WaitlistEntry) WaitlistResponse {
	return WaitlistResponse{
		ID:              w.ID,
		CustomerName:    w.CustomerName,
		CustomerContact: w.CustomerContact,
		PreferredDate:   w.PreferredDate,
		BoatID:          w.BoatID,
		Passengers:      w.Passengers,
		Notes:           w.Notes,
		Status:          string(w.Status),
		CreatedAt:       rfc3339(w.CreatedAt),
	}
}
