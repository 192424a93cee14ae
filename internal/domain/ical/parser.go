package ical

import (
	"strconv"
	"strings"
	"time"
)

const (
	beginEvent = "BEGIN:VEVENT"
	endEvent   = "END:VEVENT"
)

// Parser decodes RFC 5545-like text into events. Date-times are read as wall
// clock values in Location; UTC markers and TZID parameters are not applied.
type Parser struct {
	Location *time.Location
}

func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Location: loc}
}

// ParseContent returns the well-formed events of text. Blocks missing a
// required field are dropped.
func ParseContent(text string, loc *time.Location) []Event {
	return NewParser(loc).Parse(text).Events
}

type property struct {
	key    string
	params map[string]string
	value  string
}

type blockState struct {
	event     Event
	startLine int
	nested    int
}

// Parse never fails: malformed lines are ignored and incomplete VEVENT blocks
// are reported as issues instead of events.
func (p *Parser) Parse(text string) Result {
	result := Result{Events: []Event{}, Issues: []Issue{}}

	var (
		block       *blockState
		pending     string
		havePending bool
	)

	flush := func() {
		if !havePending {
			return
		}
		line := pending
		pending, havePending = "", false
		if block == nil || block.nested > 0 {
			return
		}
		p.apply(&block.event, parseProperty(line))
	}

	lines := strings.Split(text, "\n")
	for idx, raw := range lines {
		lineNo := idx + 1
		line := strings.TrimSuffix(raw, "\r")

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if havePending {
				pending += line[1:]
			}
			continue
		}

		flush()

		marker := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case marker == beginEvent:
			if block != nil {
				result.Issues = append(result.Issues, Issue{Line: block.startLine, UID: block.event.UID, Reason: "unterminated VEVENT"})
			}
			block = &blockState{startLine: lineNo}
		case marker == endEvent:
			if block == nil {
				continue
			}
			if missing := missingFields(block.event); len(missing) > 0 {
				result.Issues = append(result.Issues, Issue{
					Line:   block.startLine,
					UID:    block.event.UID,
					Reason: "missing " + strings.Join(missing, ", "),
				})
			} else {
				result.Events = append(result.Events, block.event)
			}
			block = nil
		case block != nil && strings.HasPrefix(marker, "BEGIN:"):
			block.nested++
		case block != nil && strings.HasPrefix(marker, "END:"):
			if block.nested > 0 {
				block.nested--
			}
		case line == "":
		default:
			pending, havePending = line, true
		}
	}
	flush()

	if block != nil {
		result.Issues = append(result.Issues, Issue{Line: block.startLine, UID: block.event.UID, Reason: "unterminated VEVENT"})
	}
	return result
}

func (p *Parser) apply(ev *Event, prop property) {
	switch prop.key {
	case "UID":
		ev.UID = prop.value
	case "SUMMARY":
		ev.Summary = prop.value
	case "DESCRIPTION":
		ev.Description = prop.value
	case "LOCATION":
		ev.Location = prop.value
	case "DTSTART":
		ev.StartDate = p.decodeDate(prop.value)
	case "DTEND":
		ev.EndDate = p.decodeDate(prop.value)
	case "CREATED":
		if t := p.decodeDate(prop.value); !t.IsZero() {
			ev.Created = &t
		}
	case "LAST-MODIFIED":
		if t := p.decodeDate(prop.value); !t.IsZero() {
			ev.LastModified = &t
		}
	case "RRULE":
		ev.RRule = prop.value
	case "EXDATE":
		for _, part := range strings.Split(prop.value, ",") {
			if t := p.decodeDate(strings.TrimSpace(part)); !t.IsZero() {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
}

// parseProperty splits NAME;PARAM=V;...:VALUE on the first colon. Lines
// without a colon produce an empty property.
func parseProperty(line string) property {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return property{}
	}
	head, value := line[:colon], line[colon+1:]
	segments := strings.Split(head, ";")
	prop := property{
		key:   strings.ToUpper(strings.TrimSpace(segments[0])),
		value: value,
	}
	for _, segment := range segments[1:] {
		name, val, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		if prop.params == nil {
			prop.params = map[string]string{}
		}
		prop.params[strings.ToUpper(strings.TrimSpace(name))] = val
	}
	return prop
}

// decodeDate reads YYYYMMDD[THHMMSS][Z] as fixed-width fields after dropping
// the T and Z markers and right-padding with zeros.
func (p *Parser) decodeDate(raw string) time.Time {
	cleaned := strings.NewReplacer("T", "", "Z", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return time.Time{}
	}
	if len(cleaned) < 15 {
		cleaned += strings.Repeat("0", 15-len(cleaned))
	}

	fields := [6]int{}
	bounds := [6][2]int{{0, 4}, {4, 6}, {6, 8}, {8, 10}, {10, 12}, {12, 14}}
	for i, b := range bounds {
		n, err := strconv.Atoi(cleaned[b[0]:b[1]])
		if err != nil {
			return time.Time{}
		}
		fields[i] = n
	}
	return time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, p.Location)
}

func missingFields(ev Event) []string {
	var missing []string
	if ev.UID == "" {
		missing = append(missing, "UID")
	}
	if ev.Summary == "" {
		missing = append(missing, "SUMMARY")
	}
	if ev.StartDate.IsZero() {
		missing = append(missing, "DTSTART")
	}
	if ev.EndDate.IsZero() {
		missing = append(missing, "DTEND")
	}
	return missing
}
