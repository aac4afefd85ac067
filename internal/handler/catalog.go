package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// CatalogHandler serves the fleet and its pricing.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Log     *zap.Logger
	// OnChange runs after every successful write, e.g. to drop cached
	// fleet and pricing responses of the company.  May be nil.
	OnChange func(ctx context.Context, companyID uint64)
}

func (h *CatalogHandler) changed(c echo.Context, companyID uint64) {
	if h.OnChange != nil {
		h.OnChange(context.WithoutCancel(c.Request().Context()), companyID)
	}
}

// ListBoats handles GET /v1/boats.
func (h *CatalogHandler) ListBoats(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := h.Catalog.ListBoats(c.Request().Context(), a)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boats": newBoatsResponse(out)})
}

type createBoatRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=1000"`
}

// CreateBoat handles POST /v1/boats.
func (h *CatalogHandler) CreateBoat(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req createBoatRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Catalog.CreateBoat(c.Request().Context(), a, req.Name, req.Capacity)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c, a.CompanyID)
	return c.JSON(http.StatusCreated, newBoatsResponse([]model.Boat{b})[0])
}

// ListPricing handles GET /v1/pricing?boat_id=.
func (h *CatalogHandler) ListPricing(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	boatID, err := optionalID(c, "boat_id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := h.Catalog.ListPricing(c.Request().Context(), a, boatID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	resp := make([]PricingResponse, 0, len(out))
	for _, p := range out {
		resp = append(resp, newPricingResponse(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"pricing": resp})
}

type createPricingRequest struct {
	BoatID          uint64 `json:"boat_id" validate:"required,gt=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1,max=1440"`
	PackageType     string `json:"package_type" validate:"required,max=50"`
	PriceCents      int64  `json:"price_cents" validate:"min=0"`
}

// CreatePricing handles POST /v1/pricing.
func (h *CatalogHandler) CreatePricing(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req createPricingRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := h.Catalog.CreatePricing(c.Request().Context(), a, service.CreatePricingInput{
		BoatID:          req.BoatID,
		DurationMinutes: req.DurationMinutes,
		PackageType:     req.PackageType,
		PriceCents:      req.PriceCents,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c, a.CompanyID)
	return c.JSON(http.StatusCreated, newPricingResponse(p))
}

type updatePriceRequest struct {
	PriceCents *int64 `json:"price_cents" validate:"required,min=0"`
}

// UpdatePrice handles PATCH /v1/pricing/:id.  Only the price can change.
func (h *CatalogHandler) UpdatePrice(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req updatePriceRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	p, err := h.Catalog.UpdatePrice(c.Request().Context(), a, id, *req.PriceCents)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c, a.CompanyID)
	return c.JSON(http.StatusOK, newPricingResponse(p))
}

// DeletePricing handles DELETE /v1/pricing/:id.
func (h *CatalogHandler) DeletePricing(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Catalog.DeletePricing(c.Request().Context(), a, id); err != nil {
		return writeError(c, h.Log, err)
	}
	h.changed(c, a.CompanyID)
	return c.NoContent(http.StatusNoContent)
}
