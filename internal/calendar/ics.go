package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/iliyamo/community-hub/internal/model"
)

const productID = "-//community-hub//bookings//EN"

// ExportICS renders bookings as a VCALENDAR feed so members can subscribe
// to the shared calendar from their own client.
func ExportICS(bookings []model.Booking, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	for _, b := range bookings {
		ev := cal.AddEvent(b.ID + "@community-hub")
		ev.SetDtStampTime(stamp.UTC())
		if !b.CreatedAt.IsZero() {
			ev.SetCreatedTime(b.CreatedAt.UTC())
		}
		ev.SetStartAt(b.Start.UTC())
		ev.SetEndAt(b.End.UTC())
		ev.SetSummary(b.Title)
		ev.SetDescription("Booked by " + b.UserName)
	}
	return cal.Serialize()
}
