package services

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const floatingLayout = "20060102T150405"

// zoneTransition is an instant at which a zone's UTC offset changes
type zoneTransition struct {
	at       time.Time
	from, to int
	abbr     string
	daylight bool
}

// zoneTransitions lists the offset changes of loc during year
func zoneTransitions(loc *time.Location, year int) []zoneTransition {
	var out []zoneTransition
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	for t := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); t.Before(end); t = t.Add(time.Hour) {
		_, before := t.Zone()
		if _, after := t.Add(time.Hour).Zone(); after == before {
			continue
		}
		for m := 1; m <= 60; m++ {
			at := t.Add(time.Duration(m) * time.Minute)
			abbr, offset := at.Zone()
			if offset != before {
				out = append(out, zoneTransition{at: at, from: before, to: offset, abbr: abbr, daylight: at.IsDST()})
				break
			}
		}
	}
	return out
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

// newTimezone describes loc for the given years so that TZID references in
// the feed resolve without the client knowing the zone.
func newTimezone(loc *time.Location, firstYear, lastYear int) *ical.Component {
	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, loc.String())

	for year := firstYear; year <= lastYear; year++ {
		for _, tr := range zoneTransitions(loc, year) {
			name := ical.CompTimezoneStandard
			if tr.daylight {
				name = ical.CompTimezoneDaylight
			}
			tz.Children = append(tz.Children, observance(name, tr.at.In(time.FixedZone("", tr.from)), tr.from, tr.to, tr.abbr))
		}
	}

	if len(tz.Children) == 0 {
		abbr, offset := time.Date(firstYear, time.January, 1, 0, 0, 0, 0, loc).Zone()
		tz.Children = append(tz.Children, observance(ical.CompTimezoneStandard, time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC), offset, offset, abbr))
	}
	return tz
}

func observance(name string, wall time.Time, from, to int, abbr string) *ical.Component {
	c := ical.NewComponent(name)
	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = wall.Format(floatingLayout)
	c.Props.Set(start)
	c.Props.SetText("TZOFFSETFROM", formatOffset(from))
	c.Props.SetText("TZOFFSETTO", formatOffset(to))
	if abbr != "" {
		c.Props.SetText("TZNAME", abbr)
	}
	return c
}
