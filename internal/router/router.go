package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/handler"
	"github.com/iliyamo/community-hub/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints.  Register, login and
// refresh need no session; logout accepts either a refresh token in the
// body or a bearer token.  /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateMe)
}

// RegisterPublic registers the CORS-enabled endpoints used without an
// account.  The dispatch endpoints sit behind the rate limiter and answer
// 405 for anything but POST; the read endpoints sit behind the response
// cache.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, ev *handler.EventHandler, d *handler.DispatchHandler, limit, cache echo.MiddlewareFunc) {
	e.Any("/sendEmail", d.SendEmail, limit)
	e.Any("/genaiSuggest", d.GenaiSuggest, limit)

	e.GET("/apiEventsUpcoming", ev.Upcoming, cache)
	e.GET("/apiCalendarBookings", b.CalendarBookings, cache)
	e.GET("/apiCalendarBookings.ics", b.CalendarICS, cache)
}
