package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// WaitlistHandler serves customers waiting for a charter date.
type WaitlistHandler struct {
	Waitlist *service.WaitlistService
	Log      *zap.Logger
}

type createWaitlistRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required,max=200"`
	CustomerContact string  `json:"customer_contact" validate:"required,max=200"`
	PreferredDate   string  `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	BoatID          *uint64 `json:"boat_id" validate:"omitempty,gt=0"`
	Passengers      int     `json:"passengers" validate:"required,min=1,max=1000"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

// Create handles POST /v1/waitlist.
func (h *WaitlistHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req createWaitlistRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	w, err := h.Waitlist.Create(c.Request().Context(), a, service.CreateWaitlistInput{
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		PreferredDate:   req.PreferredDate,
		BoatID:          req.BoatID,
		Passengers:      req.Passengers,
		Notes:           req.Notes,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newWaitlistResponse(w))
}

// List handles GET /v1/waitlist?status=&date=.
func (h *WaitlistHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	f := service.WaitlistFilter{
		Status: model.WaitlistStatus(c.QueryParam("status")),
		Date:   c.QueryParam("date"),
	}
	out, err := h.Waitlist.List(c.Request().Context(), a, f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	resp := make([]WaitlistResponse, 0, len(out))
	for _, w := range out {
		resp = append(resp, newWaitlistResponse(w))
	}
	return c.JSON(http.StatusOK, echo.Map{"waitlist": resp})
}

type setWaitlistStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=contacted converted cancelled"`
}

// SetStatus handles PATCH /v1/waitlist/:id.
func (h *WaitlistHandler) SetStatus(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req setWaitlistStatusRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	w, err := h.Waitlist.SetStatus(c.Request().Context(), a, id, model.WaitlistStatus(req.Status))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newWaitlistResponse(w))
}
