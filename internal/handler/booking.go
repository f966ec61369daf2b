package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/calendar"
	"github.com/iliyamo/community-hub/internal/feed"
	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/service"
)

const (
	defaultCalendarLimit = 500
	maxCalendarLimit     = 1000
)

// BookingHandler serves the shared calendar.  Every write goes through the
// guard; the hub feeds the live stream.
type BookingHandler struct {
	Guard *service.BookingGuard
	Hub   *feed.Hub
}

func NewBookingHandler(g *service.BookingGuard, hub *feed.Hub) *BookingHandler {
	return &BookingHandler{Guard: g, Hub: hub}
}

// List handles GET /v1/bookings.  ?mine=true restricts the listing to the
// caller's own bookings.
func (h *BookingHandler) List(c echo.Context) error {
	q := service.BookingQuery{
		Start: queryInstant(c, "start"),
		End:   queryInstant(c, "end"),
		Limit: queryLimit(c, defaultCalendarLimit, maxCalendarLimit),
	}
	if mine, _ := strconv.ParseBool(c.QueryParam("mine")); mine {
		q.UserID = middleware.PrincipalFrom(c).ID
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Guard.List(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/bookings with {title, start, end}.
func (h *BookingHandler) Create(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Guard.Create(ctx, middleware.PrincipalFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Delete handles DELETE /v1/bookings/:id.  Only the owner may delete.
func (h *BookingHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Guard.Remove(ctx, middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Conflicts handles GET /v1/bookings/conflicts?start&end and reports
// whether the slot is taken without booking it.
func (h *BookingHandler) Conflicts(c echo.Context) error {
	start, end := queryInstant(c, "start"), queryInstant(c, "end")
	if !calendar.NewInterval(start, end).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and a later end are required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	taken, err := h.Guard.HasConflict(ctx, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conflict": taken})
}

// Stream handles GET /v1/bookings/stream: a server-sent event per booking
// created or deleted.
func (h *BookingHandler) Stream(c echo.Context) error {
	sub := h.Hub.Subscribe("booking")
	defer sub.Close()
	return streamFeed(c, sub, nil)
}

// CalendarBookings handles the public GET /apiCalendarBookings.  Start is
// inclusive and end exclusive on the booking start; limit defaults to 500
// and is capped at 1000.
func (h *BookingHandler) CalendarBookings(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Guard.List(ctx, h.calendarQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CalendarICS handles GET /apiCalendarBookings.ics with the same filters.
func (h *BookingHandler) CalendarICS(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Guard.List(ctx, h.calendarQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="bookings.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(calendar.ExportICS(items, time.Now())))
}

func (h *BookingHandler) calendarQuery(c echo.Context) service.BookingQuery {
	return service.BookingQuery{
		Start:  queryInstant(c, "start"),
		End:    queryInstant(c, "end"),
		UserID: c.QueryParam("userId"),
		Limit:  queryLimit(c, defaultCalendarLimit, maxCalendarLimit),
	}
}
