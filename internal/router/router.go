package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/handler"
	"github.com/iliyamo/charter-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness and readiness.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// Auth carries what every protected group needs.  Extra middlewares (rate
// limiting) run after the caller is resolved so they can key on it.
type Auth struct {
	Secret string
	Users  middleware.UserLookup
	Log    *zap.Logger
	Extra  []echo.MiddlewareFunc
}

// group mounts a /v1 group behind JWT auth, the extra middlewares and,
// when roles are given, a role guard.
func (a Auth) group(e *echo.Echo, roles ...string) *echo.Group {
	mws := []echo.MiddlewareFunc{middleware.JWTAuth(a.Secret, a.Users, a.Log)}
	mws = append(mws, a.Extra...)
	if len(roles) > 0 {
		mws = append(mws, middleware.RequireRole(roles...))
	}
	return e.Group("/v1", mws...)
}
