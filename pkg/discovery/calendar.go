package discovery

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const defaultVisitDuration = 2 * time.Hour

// TEXT escaping covers LF only; a lone CR would end the content line.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ScheduleCalendar renders visits as an iCalendar (RFC 5545) document. A
// visit to an event ends when the event does; other visits last two hours.
func ScheduleCalendar(visits []ScheduledVisit, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId("-//Playfinder//Schedule//EN")
	cal.SetCalscale("GREGORIAN")

	for _, v := range visits {
		start := v.ScheduledAt.UTC()
		end := start.Add(defaultVisitDuration)
		if a := v.Activity; a.StartsAt != nil && a.EndsAt != nil && a.StartsAt.Equal(v.ScheduledAt) {
			end = a.EndsAt.UTC()
		}

		event := cal.AddEvent(v.ID + "@playfinder")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(lineBreaks.Replace(v.Activity.Name))
		if v.Note != "" {
			event.SetDescription(lineBreaks.Replace(v.Note))
		}
		if v.Activity.Address != "" {
			event.SetLocation(lineBreaks.Replace(v.Activity.Address))
		}
		event.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", v.Activity.Latitude, v.Activity.Longitude))
		if v.Activity.Website != "" {
			event.SetURL(v.Activity.Website)
		}
	}

	return cal.Serialize(ics.WithNewLineWindows)
}
