package model

import "time"

// WaitlistStatus is the state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "active"
	WaitlistContacted WaitlistStatus = "contacted"
	WaitlistConverted WaitlistStatus = "converted"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

var waitlistTransitions = map[WaitlistStatus][]WaitlistStatus{
	WaitlistActive:    {WaitlistContacted, WaitlistConverted, WaitlistCancelled},
	WaitlistContacted: {WaitlistConverted, WaitlistCancelled},
	WaitlistConverted: {},
	WaitlistCancelled: {},
}

// IsValid reports whether s is a known waitlist status.
func (s WaitlistStatus) IsValid() bool {
	_, ok := waitlistTransitions[s]
	return ok
}

// WaitlistSourcesFor returns the statuses from which target is reachable.
func WaitlistSourcesFor(target WaitlistStatus) []WaitlistStatus {
	var out []WaitlistStatus
	for _, from := range []WaitlistStatus{WaitlistActive, WaitlistContacted} {
		for _, t := range waitlistTransitions[from] {
			if t == target {
				out = append(out, from)
			}
		}
	}
	return out
}

// WaitlistEntry records a customer waiting for a charter date.  Promotion
// into a booking is a manual staff action.
type WaitlistEntry struct {
	ID              uint64         // waitlist.id
	CompanyID       uint64         // waitlist.company_id
	CustomerName    string         // waitlist.customer_name
	CustomerContact string         // waitlist.customer_contact
	PreferredDate   string         // waitlist.preferred_date (YYYY-MM-DD)
	BoatID          *uint64        // waitlist.boat_id (nullable)
	Passengers      int            // waitlist.passengers
	Notes           *string        // waitlist.notes (nullable)
	Status          WaitlistStatus // waitlist.status
	CreatedBy       uint64         // waitlist.created_by
	CreatedAt       time.Time      // waitlist.created_at
	UpdatedAt       time.Time      // waitlist.updated_at
}
