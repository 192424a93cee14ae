package ical

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
)

// FeedItem is one assignment published in a technician calendar feed.
type FeedItem struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Confirmed   bool
	UpdatedAt   time.Time
}

// WriteFeed serialises items as a VCALENDAR document.
func WriteFeed(w io.Writer, name, timezone string, items []FeedItem) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//crewdesk//assignments//FR")
	cal.SetXWRCalName(name)
	if timezone != "" {
		cal.SetXWRTimezone(timezone)
	}

	for _, item := range items {
		event := cal.AddEvent(item.UID)
		stamp := item.UpdatedAt
		if stamp.IsZero() {
			stamp = item.Start
		}
		event.SetDtStampTime(stamp)
		event.SetModifiedAt(stamp)
		event.SetStartAt(item.Start)
		event.SetEndAt(item.End)
		event.SetSummary(item.Summary)
		if item.Location != "" {
			event.SetLocation(item.Location)
		}
		if item.Description != "" {
			event.SetDescription(item.Description)
		}
		if item.Confirmed {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return cal.SerializeTo(w)
}
