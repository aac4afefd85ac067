package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/middleware"
	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/service"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindSlotUnavailable, service.KindInvalidTransition, service.KindConflict:
		return http.StatusConflict
	case service.KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as the JSON error envelope.  Internal details are
// logged, never returned to the client.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: "unexpected error", Err: err}
	}
	status := statusFor(se.Kind)
	body := echo.Map{"error": string(se.Kind), "message": se.Message}
	if se.Kind == service.KindSlotUnavailable && se.Conflicts != nil {
		body["conflicts"] = newConflictsResponse(*se.Conflicts)
	}
	if se.Kind.Retryable() {
		body["retryable"] = true
	}
	if status >= http.StatusInternalServerError {
		middleware.Logger(c, log).Error("request failed",
			zap.String("kind", string(se.Kind)),
			zap.String("message", se.Message),
			zap.Error(se.Err),
		)
		if se.Kind == service.KindInternal {
			body["message"] = "internal error"
		}
	}
	return c.JSON(status, body)
}

// actor returns the resolved caller or an unauthorized error.
func actor(c echo.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, &service.Error{Kind: service.KindUnauthorized, Message: "authentication required"}
	}
	return a, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.KindValidation, Message: "invalid id"}
	}
	return id, nil
}
