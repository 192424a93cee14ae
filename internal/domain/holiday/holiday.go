package holiday

import (
	"sort"
	"time"
)

type Holiday struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

type fixedDate struct {
	month time.Month
	day   int
	name  string
}

var fixedDates = []fixedDate{
	{time.January, 1, "Jour de l'an"},
	{time.May, 1, "Fête du Travail"},
	{time.May, 8, "Victoire 1945"},
	{time.July, 14, "Fête nationale"},
	{time.August, 15, "Assomption"},
	{time.November, 1, "Toussaint"},
	{time.November, 11, "Armistice 1918"},
	{time.December, 25, "Noël"},
}

type easterOffset struct {
	days int
	name string
}

var easterOffsets = []easterOffset{
	{1, "Lundi de Pâques"},
	{39, "Ascension"},
	{49, "Pentecôte"},
	{50, "Lundi de Pentecôte"},
}

// IsFrenchHoliday reports whether date falls on a French public holiday.
// The calendar day is read in date's own location, so callers must convert
// to the organisation timezone first. The zero time is never a holiday.
func IsFrenchHoliday(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	month, day := date.Month(), date.Day()
	for _, fixed := range fixedDates {
		if fixed.month == month && fixed.day == day {
			return true
		}
	}

	easter := EasterSunday(date.Year(), date.Location())
	for _, offset := range easterOffsets {
		candidate := easter.AddDate(0, 0, offset.days)
		if candidate.Month() == month && candidate.Day() == day {
			return true
		}
	}
	return false
}

// EasterSunday computes Gregorian Easter with the Meeus/Jones/Butcher algorithm.
func EasterSunday(year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

// ForYear lists every French public holiday of year, sorted by date.
func ForYear(year int, loc *time.Location) []Holiday {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Holiday, 0, len(fixedDates)+len(easterOffsets))
	for _, fixed := range fixedDates {
		out = append(out, Holiday{Name: fixed.name, Date: time.Date(year, fixed.month, fixed.day, 0, 0, 0, 0, loc)})
	}
	easter := EasterSunday(year, loc)
	for _, offset := range easterOffsets {
		out = append(out, Holiday{Name: offset.name, Date: easter.AddDate(0, 0, offset.days)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
