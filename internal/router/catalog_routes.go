package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/handler"
)

// RegisterCatalog registers fleet, pricing and waitlist endpoints.  cache
// wraps the fleet and pricing reads only; writes invalidate through the
// handler's OnChange hook.
func RegisterCatalog(e *echo.Echo, a Auth, h *handler.CatalogHandler, w *handler.WaitlistHandler, cache echo.MiddlewareFunc) {
	g := a.group(e)

	// ---- Boats ----
	g.GET("/boats", h.ListBoats, cache)
	g.POST("/boats", h.CreateBoat)

	// ---- Pricing ----
	g.GET("/pricing", h.ListPricing, cache)
	g.POST("/pricing", h.CreatePricing)
	g.PATCH("/pricing/:id", h.UpdatePrice)
	g.DELETE("/pricing/:id", h.DeletePricing)

	// ---- Waitlist ----
	g.GET("/waitlist", w.List)
	g.POST("/waitlist", w.Create)
	g.PATCH("/waitlist/:id", w.SetStatus)
}
