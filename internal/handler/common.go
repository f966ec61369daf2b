package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/repository"
	"github.com/iliyamo/community-hub/internal/service"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// respondError translates a service or repository error into a status and
// the {"error": ...} envelope.  Unknown errors are logged and reported as
// 500 without detail.
func respondError(c echo.Context, err error) error {
	var up *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		msg := "Missing fields"
		if err != service.ErrInvalidEmail {
			msg = err.Error()
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	case errors.Is(err, service.ErrInvalidBooking),
		errors.Is(err, service.ErrInvalidPrompt),
		errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrBookingConflict),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &up):
		c.Logger().Warnf("%s upstream: %v", up.Service, up.Err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": up.Error()})
	case errors.Is(err, service.ErrNotConfigured):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// queryInstant returns the raw query value, or nil when absent so that the
// services treat it as missing.  calendar.Millis decides between epoch
// millis and ISO-8601.
func queryInstant(c echo.Context, name string) any {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return v
}

// queryLimit parses ?limit and clamps it to [1, max]; absent or invalid
// values yield def.
func queryLimit(c echo.Context, def, max int) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return def
	}
	return service.ClampLimit(n, 1, max)
}

// HTTPErrorHandler renders errors that escape the handlers (unknown routes,
// body limits, failed encodes) with the same {"error": ...} envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	} else {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": msg})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
