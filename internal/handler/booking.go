package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Bookings *service.BookingService
	Sweeper  *service.Sweeper
	Log      *zap.Logger
}

// createHoldRequest is the body of POST /v1/bookings/holds.
type createHoldRequest struct {
	BoatID          *uint64   `json:"boat_id" validate:"omitempty,gt=0"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required"`
	HoldMinutes     int       `json:"hold_minutes" validate:"omitempty,min=1,max=1440"`
	CustomerName    string    `json:"customer_name" validate:"max=200"`
	CustomerContact string    `json:"customer_contact" validate:"max=200"`
	Passengers      int       `json:"passengers" validate:"min=0,max=1000"`
	PackageType     string    `json:"package_type" validate:"max=50"`
}

// CreateHold handles POST /v1/bookings/holds.
func (h *BookingHandler) CreateHold(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req createHoldRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.CreateHold(c.Request().Context(), a, service.CreateHoldInput{
		BoatID:          req.BoatID,
		Window:          model.Interval{Start: req.StartsAt, End: req.EndsAt},
		HoldFor:         time.Duration(req.HoldMinutes) * time.Minute,
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Passengers:      req.Passengers,
		PackageType:     req.PackageType,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newBookingResponse(b))
}

type confirmRequest struct {
	DepositPaid bool `json:"deposit_paid"`
}

// Confirm handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req confirmRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Confirm(c.Request().Context(), a, id, req.DepositPaid)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req cancelRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), a, id, req.Reason)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// Complete handles POST /v1/bookings/:id/complete.
func (h *BookingHandler) Complete(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Complete(c.Request().Context(), a, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// NoShow handles POST /v1/bookings/:id/no-show.
func (h *BookingHandler) NoShow(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.MarkNoShow(c.Request().Context(), a, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.GetBooking(c.Request().Context(), a, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// List handles GET /v1/bookings?boat_id=&status=&from=&to=&limit=.
func (h *BookingHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var (
		f        service.BookingFilter
		status   string
		from, to time.Time
	)
	qb := echo.QueryParamsBinder(c).
		String("status", &status).
		Time("from", &from, time.RFC3339).
		Time("to", &to, time.RFC3339).
		Int("limit", &f.Limit)
	if err := qb.BindError(); err != nil {
		return writeError(c, h.Log, &service.Error{Kind: service.KindValidation, Message: "invalid query: from and to must be RFC3339, limit a number"})
	}
	if f.BoatID, err = optionalID(c, "boat_id"); err != nil {
		return writeError(c, h.Log, err)
	}
	f.Status = model.BookingStatus(status)
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	out, err := h.Bookings.ListBookings(c.Request().Context(), a, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": newBookingsResponse(out)})
}

// Availability handles GET /v1/availability?boat_id=&start=&end=.
func (h *BookingHandler) Availability(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var start, end time.Time
	qb := echo.QueryParamsBinder(c).
		MustTime("start", &start, time.RFC3339).
		MustTime("end", &end, time.RFC3339)
	if err := qb.BindError(); err != nil {
		return writeError(c, h.Log, &service.Error{Kind: service.KindValidation, Message: "start and end are required RFC3339 timestamps"})
	}
	boatID, err := optionalID(c, "boat_id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	res, err := h.Bookings.CheckAvailability(c.Request().Context(), a, boatID, model.Interval{Start: start, End: end})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": res.Free,
		"conflicts": newConflictsResponse(res.Conflicts),
	})
}

// Sweep handles POST /v1/bookings/sweep.  The scheduler runs the same
// sweep periodically; this endpoint lets an operator force one.
func (h *BookingHandler) Sweep(c echo.Context) error {
	res, err := h.Sweeper.Sweep(c.Request().Context())
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reclaimed_count": res.Reclaimed,
		"failed_count":    res.Failed,
	})
}

func actorAndID(c echo.Context) (model.Actor, uint64, error) {
	a, err := actor(c)
	if err != nil {
		return model.Actor{}, 0, err
	}
	id, err := pathID(c)
	if err != nil {
		return model.Actor{}, 0, err
	}
	return a, id, nil
}

// optionalID reads an optional positive id from the query string.
func optionalID(c echo.Context, name string) (*uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, &service.Error{Kind: service.KindValidation, Message: name + " must be a positive integer"}
	}
	return &id, nil
}
