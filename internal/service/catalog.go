package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
)

// catalogEditors may change the fleet and its prices.
var catalogEditors = []string{model.RoleAdmin, model.RoleManager}

// CatalogService manages boats and their pricing entries.
type CatalogService struct {
	options
	boats   BoatStore
	pricing PricingStore
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(boats BoatStore, pricing PricingStore, opts ...Option) *CatalogService {
	if boats == nil || pricing == nil {
		panic("nil store passed to NewCatalogService")
	}
	return &CatalogService{options: buildOptions(opts), boats: boats, pricing: pricing}
}

func (s *CatalogService) requireEditor(actor model.Actor) error {
	if !actor.HasRole(catalogEditors...) {
		return &Error{Kind: KindForbidden, Message: fmt.Sprintf("role %q cannot edit the fleet", actor.Role)}
	}
	return nil
}

// ListBoats returns the company's fleet.
func (s *CatalogService) ListBoats(ctx context.Context, actor model.Actor) ([]model.Boat, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.boats.ListBoats(ctx, actor.CompanyID)
	if err != nil {
		return nil, classify("list boats", err)
	}
	return out, nil
}

// CreateBoat adds an active boat to the fleet.
func (s *CatalogService) CreateBoat(ctx context.Context, actor model.Actor, name string, capacity int) (model.Boat, error) {
	if err := s.requireEditor(actor); err != nil {
		return model.Boat{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Boat{}, validationErr("name is required")
	}
	if capacity < 1 {
		return model.Boat{}, validationErr("capacity must be positive")
	}
	b := model.Boat{CompanyID: actor.CompanyID, Name: name, Capacity: capacity, IsActive: true}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.boats.CreateBoat(ctx, &b); err != nil {
		return model.Boat{}, classify("create boat", err)
	}
	return b, nil
}

// ListPricing returns pricing entries, optionally for one boat.
func (s *CatalogService) ListPricing(ctx context.Context, actor model.Actor, boatID *uint64) ([]model.PricingEntry, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.pricing.ListPricing(ctx, actor.CompanyID, boatID)
	if err != nil {
		return nil, classify("list pricing", err)
	}
	return out, nil
}

// CreatePricingInput describes a new pricing entry.
type CreatePricingInput struct {
	BoatID          uint64
	DurationMinutes int
	PackageType     string
	PriceCents      int64
}

// CreatePricing adds a price for (boat, duration, package).  A second
// entry for the same triple is a conflict.
func (s *CatalogService) CreatePricing(ctx context.Context, actor model.Actor, in CreatePricingInput) (model.PricingEntry, error) {
	if err := s.requireEditor(actor); err != nil {
		return model.PricingEntry{}, err
	}
	pkg := strings.ToLower(strings.TrimSpace(in.PackageType))
	switch {
	case in.BoatID == 0:
		return model.PricingEntry{}, validationErr("boat_id is required")
	case in.DurationMinutes <= 0:
		return model.PricingEntry{}, validationErr("duration must be positive")
	case pkg == "":
		return model.PricingEntry{}, validationErr("package_type is required")
	case in.PriceCents < 0:
		return model.PricingEntry{}, validationErr("price must not be negative")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if _, err := s.boats.GetBoat(ctx, actor.CompanyID, in.BoatID); err != nil {
		return model.PricingEntry{}, classify("load boat", err)
	}
	p := model.PricingEntry{
		CompanyID:       actor.CompanyID,
		BoatID:          in.BoatID,
		DurationMinutes: in.DurationMinutes,
		PackageType:     pkg,
		PriceCents:      in.PriceCents,
	}
	if err := s.pricing.CreatePricing(ctx, &p); err != nil {
		return model.PricingEntry{}, classify("create pricing", err)
	}
	s.log.Info("pricing created", zap.Uint64("pricing_id", p.ID), zap.Uint64("boat_id", p.BoatID))
	return p, nil
}

// UpdatePrice changes only the price of an entry.
func (s *CatalogService) UpdatePrice(ctx context.Context, actor model.Actor, id uint64, priceCents int64) (model.PricingEntry, error) {
	if err := s.requireEditor(actor); err != nil {
		return model.PricingEntry{}, err
	}
	if priceCents < 0 {
		return model.PricingEntry{}, validationErr("price must not be negative")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	p, err := s.pricing.UpdatePrice(ctx, actor.CompanyID, id, priceCents)
	if err != nil {
		return model.PricingEntry{}, classify(fmt.Sprintf("pricing %d", id), err)
	}
	return p, nil
}

// DeletePricing removes an entry.
func (s *CatalogService) DeletePricing(ctx context.Context, actor model.Actor, id uint64) error {
	if err := s.requireEditor(actor); err != nil {
		return err
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.pricing.DeletePricing(ctx, actor.CompanyID, id); err != nil {
		return classify(fmt.Sprintf("pricing %d", id), err)
	}
	return nil
}
