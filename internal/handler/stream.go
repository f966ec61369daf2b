package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/feed"
)

// keepAlive is how often an idle stream sends a comment line so proxies
// keep the connection open.
var keepAlive = 25 * time.Second

// streamFeed writes server-sent events for sub until the client goes away
// or the subscription is closed.  When initial is non-nil it is sent first
// as a "snapshot" event.  The caller owns sub and closes it.
func streamFeed(c echo.Context, sub *feed.Subscription, initial any) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if initial != nil {
		if err := writeEvent(res, "snapshot", initial); err != nil {
			return nil
		}
	}
	res.Flush()

	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := writeEvent(res, msg.Topic, msg); err != nil {
				return nil
			}
		case <-tick.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
		}
		res.Flush()
	}
}

func writeEvent(res *echo.Response, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, data)
	return err
}
