package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/feed"
	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/service"
)

// EventHandler serves the upcoming-events listing and RSVPs.
type EventHandler struct {
	Events        *service.Events
	Registrations *service.Registrations
	Hub           *feed.Hub
}

func NewEventHandler(ev *service.Events, regs *service.Registrations, hub *feed.Hub) *EventHandler {
	return &EventHandler{Events: ev, Registrations: regs, Hub: hub}
}

// eventView is an event as seen by a signed-in member.
type eventView struct {
	model.Event
	Attendees  int  `json:"attendees"`
	Registered bool `json:"registered"`
}

// Upcoming handles the public GET /apiEventsUpcoming?start&end&limit.
// There is a single page, so nextPageToken is always null.
func (h *EventHandler) Upcoming(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Events.Upcoming(ctx, queryInstant(c, "start"), queryInstant(c, "end"),
		queryLimit(c, service.DefaultEventLimit, service.MaxEventLimit))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "nextPageToken": nil})
}

// List handles GET /v1/events: the upcoming listing annotated with the
// attendee count and whether the caller has RSVPed.
func (h *EventHandler) List(c echo.Context) error {
	user := middleware.PrincipalFrom(c)
	ctx, cancel := withTimeout(c)
	defer cancel()

	events, err := h.Events.Upcoming(ctx, queryInstant(c, "start"), queryInstant(c, "end"),
		queryLimit(c, service.DefaultEventLimit, service.MaxEventLimit))
	if err != nil {
		return respondError(c, err)
	}
	counts, err := h.Registrations.Counts(ctx)
	if err != nil {
		return respondError(c, err)
	}
	mine, err := h.Registrations.Mine(ctx, user)
	if err != nil {
		return respondError(c, err)
	}
	registered := make(map[string]bool, len(mine))
	for _, r := range mine {
		registered[r.EventID] = true
	}

	items := make([]eventView, 0, len(events))
	for _, e := range events {
		items = append(items, eventView{Event: e, Attendees: counts[e.ID], Registered: registered[e.ID]})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	e, err := h.Events.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Create handles POST /v1/events (admin).
func (h *EventHandler) Create(c echo.Context) error {
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	e, err := h.Events.Create(ctx, middleware.PrincipalFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// Registration handles GET /v1/events/:id/registration.
func (h *EventHandler) Registration(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ok, err := h.Registrations.HasRSVPed(ctx, middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"registered": ok})
}

// Register handles POST /v1/events/:id/registration.  The optional body
// {eventName} names events that are not stored, such as placeholders.
func (h *EventHandler) Register(c echo.Context) error {
	var body struct {
		EventName string `json:"eventName"`
	}
	_ = c.Bind(&body)
	ctx, cancel := withTimeout(c)
	defer cancel()

	reg, err := h.Registrations.RSVP(ctx, middleware.PrincipalFrom(c), c.Param("id"), body.EventName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// Unregister handles DELETE /v1/events/:id/registration.
func (h *EventHandler) Unregister(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Registrations.Cancel(ctx, middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Counts handles GET /v1/events/counts.
func (h *EventHandler) Counts(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	counts, err := h.Registrations.Counts(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts})
}

// MyRegistrations handles GET /v1/my-registrations, newest first.
func (h *EventHandler) MyRegistrations(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Registrations.Mine(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Stream handles GET /v1/events/stream: RSVPs and new events as they
// happen.
func (h *EventHandler) Stream(c echo.Context) error {
	sub := h.Hub.Subscribe("registration", "event")
	defer sub.Close()
	return streamFeed(c, sub, nil)
}
