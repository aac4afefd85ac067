package model

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the civil date format used by blocked slots and the
	// waitlist.
	DateLayout = "2006-01-02"
	// ClockLayout is the civil time-of-day format used by blocked slots.
	ClockLayout = "15:04"
)

// BlockedSlot marks a maintenance or unavailability window.  A nil BoatID
// blocks every boat of the company.  Start and end are stored as separate
// date and time-of-day columns; a missing start time means the start of
// StartDate and a missing end time means the end of EndDate.
//
// Fields:
//
//	ID        – primary key identifier.
//	CompanyID – owning company.
//	BoatID    – blocked boat, nil for a company-wide block.
//	StartDate – blocked_slots.start_date (YYYY-MM-DD).
//	StartTime – blocked_slots.start_time (HH:MM, nullable).
//	EndDate   – blocked_slots.end_date (YYYY-MM-DD).
//	EndTime   – blocked_slots.end_time (HH:MM, nullable).
//	Reason    – free text shown on the calendar.
//	CreatedBy – user who created the block.
type BlockedSlot struct {
	ID        uint64    // blocked_slots.id
	CompanyID uint64    // blocked_slots.company_id
	BoatID    *uint64   // blocked_slots.boat_id (nullable)
	StartDate string    // blocked_slots.start_date
	StartTime *string   // blocked_slots.start_time (nullable)
	EndDate   string    // blocked_slots.end_date
	EndTime   *string   // blocked_slots.end_time (nullable)
	Reason    string    // blocked_slots.reason
	CreatedBy uint64    // blocked_slots.created_by
	CreatedAt time.Time // blocked_slots.created_at
}

// Window combines the date and time columns into a UTC interval.  Dates
// must never be compared alone: a block from 2024-05-01 22:00 to
// 2024-05-02 06:00 covers the night between both days.
func (b BlockedSlot) Window() (Interval, error) {
	start, err := combine(b.StartDate, b.StartTime, false)
	if err != nil {
		return Interval{}, fmt.Errorf("blocked slot %d start: %w", b.ID, err)
	}
	end, err := combine(b.EndDate, b.EndTime, true)
	if err != nil {
		return Interval{}, fmt.Errorf("blocked slot %d end: %w", b.ID, err)
	}
	return Interval{Start: start, End: end}, nil
}

// IsGlobal reports whether the block applies to every boat.
func (b BlockedSlot) IsGlobal() bool { return b.BoatID == nil }

// AppliesTo reports whether the block covers the given boat.  A nil boat
// (an unassigned request) is only covered by global blocks.
func (b BlockedSlot) AppliesTo(boatID *uint64) bool {
	if b.BoatID == nil {
		return true
	}
	return boatID != nil && *boatID == *b.BoatID
}

func combine(date string, clock *string, endOfDay bool) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if clock == nil || *clock == "" {
		if endOfDay {
			return d.AddDate(0, 0, 1), nil
		}
		return d, nil
	}
	c, err := ParseClock(*clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(c), nil
}

// ParseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	layout := ClockLayout
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// DateRange is an inclusive range of civil dates.
type DateRange struct {
	From string
	To   string
}

// Interval converts the inclusive date range to a half-open UTC interval
// covering both end dates completely.
func (r DateRange) Interval() (Interval, error) {
	from, err := time.ParseInLocation(DateLayout, r.From, time.UTC)
	if err != nil {
		return Interval{}, err
	}
	to, err := time.ParseInLocation(DateLayout, r.To, time.UTC)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: from, End: to.AddDate(0, 0, 1)}, nil
}
