package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// BlockedSlotHandler serves the maintenance / unavailability overlay.
type BlockedSlotHandler struct {
	Blocks *service.BlockService
	Log    *zap.Logger
}

// List handles GET /v1/blocked-slots?from=YYYY-MM-DD&to=YYYY-MM-DD&boat_id=.
func (h *BlockedSlotHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var r model.DateRange
	qb := echo.QueryParamsBinder(c).
		MustString("from", &r.From).
		MustString("to", &r.To)
	if err := qb.BindError(); err != nil {
		return writeError(c, h.Log, &service.Error{Kind: service.KindValidation, Message: "from and to are required"})
	}
	boatID, err := optionalID(c, "boat_id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := h.Blocks.ListBlocks(c.Request().Context(), a, r, boatID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked_slots": newBlocksResponse(out)})
}

type createBlockRequest struct {
	BoatID    *uint64 `json:"boat_id" validate:"omitempty,gt=0"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	EndTime   *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Reason    string  `json:"reason" validate:"max=500"`
}

// Create handles POST /v1/blocked-slots.
func (h *BlockedSlotHandler) Create(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req createBlockRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Blocks.CreateBlock(c.Request().Context(), a, service.CreateBlockInput{
		BoatID:    req.BoatID,
		StartDate: req.StartDate,
		StartTime: req.StartTime,
		EndDate:   req.EndDate,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newBlocksResponse([]model.BlockedSlot{b})[0])
}

// Delete handles DELETE /v1/blocked-slots/:id.
func (h *BlockedSlotHandler) Delete(c echo.Context) error {
	a, id, err := actorAndID(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if err := h.Blocks.DeleteBlock(c.Request().Context(), a, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
