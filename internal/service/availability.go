package service

import (
	"context"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// Conflicts lists what prevents an interval from being booked.
type Conflicts struct {
	Bookings []model.Booking
	Blocks   []model.BlockedSlot
}

// Empty reports whether nothing conflicts.
func (c Conflicts) Empty() bool { return len(c.Bookings) == 0 && len(c.Blocks) == 0 }

// AvailabilityResult is the outcome of an availability check.
type AvailabilityResult struct {
	Free      bool
	Conflicts Conflicts
}

// findConflicts applies the half-open overlap rule to whatever r returns.
// Bookings count only while they occupy at now; blocks are compared on
// their combined date and time.  boatID nil means an unassigned request,
// which only global blocks can obstruct.
func findConflicts(ctx context.Context, r OccupancyReader, companyID uint64, boatID *uint64, window model.Interval, now time.Time) (Conflicts, error) {
	var out Conflicts
	if boatID != nil {
		bookings, err := r.OccupyingBookings(ctx, companyID, *boatID, window, now)
		if err != nil {
			return Conflicts{}, err
		}
		for _, b := range bookings {
			if b.CompanyID != companyID || b.BoatID == nil || *b.BoatID != *boatID {
				continue
			}
			if b.Occupies(now) && b.Window().Overlaps(window) {
				out.Bookings = append(out.Bookings, b)
			}
		}
	}
	blocks, err := r.BlocksFor(ctx, companyID, boatID, window)
	if err != nil {
		return Conflicts{}, err
	}
	for _, bl := range blocks {
		if bl.CompanyID != companyID || !bl.AppliesTo(boatID) {
			continue
		}
		w, err := bl.Window()
		if err != nil {
			return Conflicts{}, err
		}
		if w.Overlaps(window) {
			out.Blocks = append(out.Blocks, bl)
		}
	}
	return out, nil
}

// validateWindow rejects intervals that cannot be booked.
func validateWindow(w model.Interval) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return validationErr("start and end are required")
	}
	if !w.Valid() {
		return validationErr("end must be after start")
	}
	return nil
}

// CheckAvailability reports whether window is free on boatID for the
// actor's company, listing conflicts when it is not.
func (s *BookingService) CheckAvailability(ctx context.Context, actor model.Actor, boatID *uint64, window model.Interval) (AvailabilityResult, error) {
	window = window.UTC()
	if err := validateWindow(window); err != nil {
		return AvailabilityResult{}, err
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if boatID != nil {
		if _, err := s.boats.GetBoat(ctx, actor.CompanyID, *boatID); err != nil {
			return AvailabilityResult{}, classify("load boat", err)
		}
	}
	conflicts, err := findConflicts(ctx, s.bookings, actor.CompanyID, boatID, window, s.now())
	if err != nil {
		return AvailabilityResult{}, classify("check availability", err)
	}
	return AvailabilityResult{Free: conflicts.Empty(), Conflicts: conflicts}, nil
}
