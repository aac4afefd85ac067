package model

import "time"

// PricingEntry is the price of one package on one boat for a given
// duration.  At most one entry exists per (boat, duration, package type).
type PricingEntry struct {
	ID              uint64    // boat_pricing.id
	CompanyID       uint64    // boat_pricing.company_id
	BoatID          uint64    // boat_pricing.boat_id
	DurationMinutes int       // boat_pricing.duration_minutes
	PackageType     string    // boat_pricing.package_type
	PriceCents      int64     // boat_pricing.price_cents
	CreatedAt       time.Time // boat_pricing.created_at
	UpdatedAt       time.Time // boat_pricing.updated_at
}
