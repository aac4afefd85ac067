package model

import "time"

// Boat is a vessel in a company's fleet.  Bookings and blocked slots
// reference boats by ID.
type Boat struct {
	ID        uint64    // boats.id
	CompanyID uint64    // boats.company_id
	Name      string    // boats.name
	Capacity  int       // boats.capacity (passengers)
	IsActive  bool      // boats.is_active
	CreatedAt time.Time // boats.created_at
	UpdatedAt time.Time // boats.updated_at
}
