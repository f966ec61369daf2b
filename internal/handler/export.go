package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-hub/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportBookings handles GET /v1/admin/bookings/export.xlsx.  It takes the
// same start/end/userId filters as the calendar without a row limit.
func (h *BookingHandler) ExportBookings(c echo.Context) error {
	q := h.calendarQuery(c)
	q.Limit = 0
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Guard.List(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	buf, err := service.BookingsWorkbook(items)
	if err != nil {
		return respondError(c, err)
	}
	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
