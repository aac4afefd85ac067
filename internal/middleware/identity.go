package middleware

// identity.go holds the context keys set by JWTAuth and helpers to read
// them back.  Handlers receive the caller as a model.Actor; the company in
// it always comes from the users table, never from the token.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-booking/internal/model"
)

const (
	actorKey  = "actor"
	loggerKey = "logger"
)

// SetActor stores the resolved caller on the context.
func SetActor(c echo.Context, a model.Actor) {
	c.Set(actorKey, a)
	c.Set("user_id", strconv.FormatUint(a.UserID, 10))
	c.Set("role", a.Role)
}

// ActorFrom returns the caller resolved by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(actorKey).(model.Actor)
	return a, ok && a.UserID != 0
}

// userID returns the caller's ID for rate-limit keys, "anon" when the
// request is unauthenticated.
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	return "anon"
}

// companyID returns the caller's company for cache and rate-limit keys,
// "none" when the request is unauthenticated.
func companyID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.CompanyID, 10)
	}
	return "none"
}
