package middleware // middleware provides reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
	"github.com/iliyamo/charter-booking/internal/utils"
)

// UserLookup resolves a token subject to an active user.
type UserLookup interface {
	GetActiveUser(ctx context.Context, id uint64) (model.User, error)
}

// JWTAuth validates a Bearer access token, loads the user it names and
// stores the resulting model.Actor on the context.  The role and company
// come from the user row, so a role change or deactivation takes effect
// without waiting for the token to expire.
func JWTAuth(secret string, users UserLookup, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			u, err := users.GetActiveUser(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c, "unknown or inactive user")
				}
				log.Warn("identity lookup failed", zap.Uint64("user_id", claims.UserID), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"error":     "transient_store_error",
					"message":   "could not resolve caller",
					"retryable": true,
				})
			}
			if u.CompanyID == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "user has no company"})
			}
			SetActor(c, model.Actor{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID})
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
}
