package ical

import (
	"time"

	"github.com/teambition/rrule-go"
)

const (
	defaultMaxOccurrences = 500
	// maxScanned bounds how many recurrences are walked before the window,
	// so dense rules starting long before it stay cheap.
	maxScanned = 100000
)

// Expand replaces recurring events with their occurrences inside [from, to].
// Each occurrence keeps the original duration and gets a UID suffixed with its
// start. Events with an unreadable RRULE are reported and left out.
func Expand(events []Event, from, to time.Time, limit int) ([]Event, []Issue, error) {
	if to.Before(from) {
		return nil, nil, ErrInvalidWindow
	}
	if limit <= 0 {
		limit = defaultMaxOccurrences
	}

	out := make([]Event, 0, len(events))
	var issues []Issue
	for _, ev := range events {
		if ev.RRule == "" {
			out = append(out, ev)
			continue
		}

		rule, err := rrule.StrToRRule(ev.RRule)
		if err != nil {
			issues = append(issues, Issue{UID: ev.UID, Reason: "invalid RRULE: " + err.Error()})
			continue
		}
		rule.DTStart(ev.StartDate)

		var set rrule.Set
		set.RRule(rule)
		for _, ex := range ev.ExDates {
			set.ExDate(ex.In(ev.StartDate.Location()))
		}

		starts, reason := occurrences(&set, from.In(ev.StartDate.Location()), to.In(ev.StartDate.Location()), limit)
		if reason != "" {
			issues = append(issues, Issue{UID: ev.UID, Reason: reason})
		}

		duration := ev.EndDate.Sub(ev.StartDate)
		for _, start := range starts {
			occ := ev
			occ.UID = ev.UID + "-" + start.Format("20060102T150405")
			occ.StartDate = start
			occ.EndDate = start.Add(duration)
			occ.RRule = ""
			occ.ExDates = nil
			out = append(out, occ)
		}
	}
	return out, issues, nil
}

// occurrences walks the set lazily and returns at most limit starts inside
// [from, to]. A non-empty reason reports why the walk stopped early.
func occurrences(set *rrule.Set, from, to time.Time, limit int) ([]time.Time, string) {
	next := set.Iterator()
	var starts []time.Time
	for scanned := 0; ; scanned++ {
		t, ok := next()
		if !ok || t.After(to) {
			return starts, ""
		}
		if t.Before(from) {
			if scanned >= maxScanned {
				return starts, "recurrence too dense before window"
			}
			continue
		}
		if len(starts) == limit {
			return starts, "occurrences truncated"
		}
		starts = append(starts, t)
	}
}
