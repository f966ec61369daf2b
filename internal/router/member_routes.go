package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/handler"
	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/model"
)

// RegisterMember registers the signed-in member endpoints under /v1.  All
// routes require a valid JWT carrying the user or admin role.  Ownership
// of bookings is checked by the service.
func RegisterMember(e *echo.Echo, b *handler.BookingHandler, ev *handler.EventHandler, p *handler.PresenceHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)

	g.GET("/bookings", b.List)
	g.POST("/bookings", b.Create)
	g.DELETE("/bookings/:id", b.Delete)
	g.GET("/bookings/conflicts", b.Conflicts)
	g.GET("/bookings/stream", b.Stream)

	g.GET("/events", ev.List)
	g.POST("/events", ev.Create, middleware.RequireRole(model.RoleAdmin))
	g.GET("/events/counts", ev.Counts)
	g.GET("/events/stream", ev.Stream)
	g.GET("/events/:id", ev.Get)
	g.GET("/events/:id/registration", ev.Registration)
	g.POST("/events/:id/registration", ev.Register)
	g.DELETE("/events/:id/registration", ev.Unregister)
	g.GET("/my-registrations", ev.MyRegistrations)

	g.POST("/presence/heartbeat", p.Heartbeat)
	g.GET("/presence", p.Snapshot)
	g.GET("/presence/stream", p.Stream)
}

// RegisterAdmin registers admin-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings/export.xlsx", b.ExportBookings)
}
