package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/handler"
	"github.com/iliyamo/charter-booking/internal/model"
)

// RegisterBookings registers the booking lifecycle, availability and the
// blocked-slot overlay.  Any company member may read and book; fine
// grained checks (who may delete a block) happen in the service.
func RegisterBookings(e *echo.Echo, a Auth, h *handler.BookingHandler, blocks *handler.BlockedSlotHandler) {
	g := a.group(e)

	g.GET("/availability", h.Availability)

	g.POST("/bookings/holds", h.CreateHold)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.POST("/bookings/:id/confirm", h.Confirm)
	g.POST("/bookings/:id/cancel", h.Cancel)
	g.POST("/bookings/:id/complete", h.Complete)
	g.POST("/bookings/:id/no-show", h.NoShow)

	g.GET("/blocked-slots", blocks.List)
	g.POST("/blocked-slots", blocks.Create)
	g.DELETE("/blocked-slots/:id", blocks.Delete)

	// forcing a sweep is an operator action
	ops := a.group(e, model.RoleAdmin, model.RoleManager)
	ops.POST("/bookings/sweep", h.Sweep)
}
