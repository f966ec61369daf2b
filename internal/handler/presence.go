package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/feed"
	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/service"
)

// PresenceHandler exposes heartbeats and the who-is-online list.
type PresenceHandler struct {
	Tracker *service.Tracker
	Hub     *feed.Hub
}

func NewPresenceHandler(t *service.Tracker, hub *feed.Hub) *PresenceHandler {
	return &PresenceHandler{Tracker: t, Hub: hub}
}

// Heartbeat handles POST /v1/presence/heartbeat for clients that beat on
// their own schedule.
func (h *PresenceHandler) Heartbeat(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Tracker.Beat(ctx, middleware.PrincipalFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Snapshot handles GET /v1/presence.
func (h *PresenceHandler) Snapshot(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	snap, err := h.Tracker.Snapshot(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Stream handles GET /v1/presence/stream.  While the connection is open
// the server beats on the caller's behalf; closing it releases the session
// with one final beat.
func (h *PresenceHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := h.Tracker.Start(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	defer sess.Release()

	sub := h.Hub.Subscribe("presence")
	defer sub.Close()

	snap, err := h.Tracker.Snapshot(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return streamFeed(c, sub, snap)
}
