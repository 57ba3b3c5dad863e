// Package schedule expands weekly session rules into concrete dated slots.
//
// Dates are represented as time.Time values at midnight UTC; only their
// year, month and day are meaningful. Weekdays use the Monday=0 convention
// stored on sessions.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Weekday is a day of the week with Monday=0 and Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (w Weekday) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// IsValid reports whether w is within 0..6.
func (w Weekday) IsValid() bool {
	return w >= Monday && w <= Sunday
}

// WeekdayOf returns the Monday=0 weekday of the date.
func WeekdayOf(d time.Time) Weekday {
	return Weekday((int(d.Weekday()) + 6) % 7)
}

// Date truncates t to its calendar date, read in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO "YYYY-MM-DD" date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// Combine places a wall-clock time on a calendar date in loc.
func Combine(date time.Time, clock TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour, clock.Minute, clock.Second, 0, loc)
}

// Rule is a weekly recurrence: one slot per week on Weekday from Start to End.
type Rule struct {
	Weekday Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

// Validate checks the rule can produce well-formed slots.
func (r Rule) Validate() error {
	if !r.Weekday.IsValid() {
		return fmt.Errorf("day of week must be between 0 and 6, got %d", int(r.Weekday))
	}
	if !r.Start.IsValid() || !r.End.IsValid() {
		return errors.New("start and end times must be valid clock times")
	}
	if !r.Start.Before(r.End) {
		return errors.New("start time must be before end time")
	}
	return nil
}

// Window is an inclusive date range belonging to one calendar year.
// Year selects which exclusion dates apply; it is not derived from Start or End.
type Window struct {
	Start    time.Time
	End      time.Time
	Year     int
	Location *time.Location
}

// Slot is one concrete occurrence produced by Expand.
type Slot struct {
	Date     time.Time
	StartsAt time.Time
	EndsAt   time.Time
}

// Exclusions holds excluded calendar dates per year.
type Exclusions map[int]map[time.Time]struct{}

// Add records date as excluded for year.
func (e Exclusions) Add(year int, date time.Time) {
	set, ok := e[year]
	if !ok {
		set = make(map[time.Time]struct{})
		e[year] = set
	}
	set[Date(date)] = struct{}{}
}

// Contains reports whether date is excluded for year. A nil set excludes nothing.
func (e Exclusions) Contains(year int, date time.Time) bool {
	if e == nil {
		return false
	}
	_, ok := e[year][Date(date)]
	return ok
}

// FirstOnOrAfter returns the first date on or after start that falls on weekday.
func FirstOnOrAfter(start time.Time, weekday Weekday) time.Time {
	daysAhead := (int(weekday) - int(WeekdayOf(start)) + 7) % 7
	return Date(start).AddDate(0, 0, daysAhead)
}

var rruleWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// RecurrenceSet builds the RFC 5545 set for rule within window: a weekly
// RRULE anchored on the first matching date, with one EXDATE per date
// excluded for window.Year.
func RecurrenceSet(rule Rule, window Window, excluded Exclusions) (*rrule.Set, error) {
	if !rule.Weekday.IsValid() {
		return nil, fmt.Errorf("day of week must be between 0 and 6, got %d", int(rule.Weekday))
	}
	loc := window.Location
	if loc == nil {
		loc = time.UTC
	}

	weekly, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[rule.Weekday]},
		Dtstart:   Combine(FirstOnOrAfter(window.Start, rule.Weekday), rule.Start, loc),
		Until:     Combine(window.End, rule.Start, loc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly rule: %w", err)
	}

	set := &rrule.Set{}
	set.RRule(weekly)
	for date := range excluded[window.Year] {
		set.ExDate(Combine(date, rule.Start, loc))
	}
	return set, nil
}

// Expand produces the slots of rule within window, skipping dates excluded
// for window.Year. Slots are returned in chronological order. A rule with an
// invalid weekday expands to nothing.
func Expand(rule Rule, window Window, excluded Exclusions) []Slot {
	if Date(window.End).Before(Date(window.Start)) {
		return nil
	}
	set, err := RecurrenceSet(rule, window, excluded)
	if err != nil {
		return nil
	}

	starts := set.All()
	slots := make([]Slot, 0, len(starts))
	for _, start := range starts {
		date := Date(start)
		slots = append(slots, Slot{
			Date:     date,
			StartsAt: start,
			EndsAt:   Combine(date, rule.End, start.Location()),
		})
	}
	return slots
}

// InstantKey identifies a start instant independently of its location and
// monotonic clock reading, for use as a map key.
func InstantKey(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

var weekdayShort = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Describe renders the rule for people, e.g. "Wed 3:30pm–5pm".
func (r Rule) Describe() string {
	day := ""
	if r.Weekday.IsValid() {
		day = weekdayShort[r.Weekday]
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s–%s", day, r.Start.Kitchen(), r.End.Kitchen()))
}
