package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/service"
)

// DispatchHandler fronts the two outbound collaborators: the SMTP relay
// and the text generation API.  Both endpoints are public, accept POST only
// and answer {"ok": true, ...} or {"error": "..."}.
type DispatchHandler struct {
	Mailer    *service.Mailer
	Suggester *service.Suggester
}

func NewDispatchHandler(m *service.Mailer, s *service.Suggester) *DispatchHandler {
	return &DispatchHandler{Mailer: m, Suggester: s}
}

func methodNotAllowed(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
	return c.JSON(http.StatusMethodNotAllowed, echo.Map{"error": "Method not allowed"})
}

// SendEmail handles /sendEmail.
func (h *DispatchHandler) SendEmail(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	var msg service.EmailMessage
	if err := c.Bind(&msg); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing fields"})
	}
	if err := h.Mailer.Dispatch(c.Request().Context(), msg); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// GenaiSuggest handles /genaiSuggest with {prompt}.
func (h *DispatchHandler) GenaiSuggest(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.ErrInvalidPrompt.Error()})
	}
	text, err := h.Suggester.Suggest(c.Request().Context(), body.Prompt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "text": text})
}
