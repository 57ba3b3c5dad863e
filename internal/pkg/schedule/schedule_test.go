package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auckland(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	return loc
}

func wednesdayRule() Rule {
	return Rule{Weekday: Wednesday, Start: MustTimeOfDay("15:30"), End: MustTimeOfDay("17:00")}
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Monday, WeekdayOf(NewDate(2026, time.February, 2)))
	assert.Equal(t, Wednesday, WeekdayOf(NewDate(2026, time.February, 4)))
	assert.Equal(t, Sunday, WeekdayOf(NewDate(2026, time.February, 8)))
}

func TestFirstOnOrAfter(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		weekday Weekday
		want    time.Time
	}{
		{"same weekday is a zero offset", NewDate(2026, 2, 4), Wednesday, NewDate(2026, 2, 4)},
		{"later in the week", NewDate(2026, 2, 2), Friday, NewDate(2026, 2, 6)},
		{"wraps into next week", NewDate(2026, 2, 5), Monday, NewDate(2026, 2, 9)},
		{"sunday from saturday", NewDate(2026, 2, 7), Sunday, NewDate(2026, 2, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstOnOrAfter(tt.start, tt.weekday))
		})
	}
}

func TestExpand_ScenarioWithoutExclusions(t *testing.T) {
	loc := auckland(t)
	window := Window{Start: NewDate(2026, 2, 4), End: NewDate(2026, 2, 18), Year: 2026, Location: loc}

	slots := Expand(wednesdayRule(), window, nil)

	require.Len(t, slots, 3)
	for i, day := range []int{4, 11, 18} {
		assert.Equal(t, time.Date(2026, 2, day, 15, 30, 0, 0, loc), slots[i].StartsAt)
		assert.Equal(t, time.Date(2026, 2, day, 17, 0, 0, 0, loc), slots[i].EndsAt)
		assert.Equal(t, NewDate(2026, 2, day), slots[i].Date)
	}
}

func TestExpand_SkipsExcludedDates(t *testing.T) {
	loc := auckland(t)
	window := Window{Start: NewDate(2026, 2, 4), End: NewDate(2026, 2, 18), Year: 2026, Location: loc}
	excluded := Exclusions{}
	excluded.Add(2026, NewDate(2026, 2, 11))

	slots := Expand(wednesdayRule(), window, excluded)

	require.Len(t, slots, 2)
	assert.Equal(t, NewDate(2026, 2, 4), slots[0].Date)
	assert.Equal(t, NewDate(2026, 2, 18), slots[1].Date)
}

func TestExpand_ExclusionsOnlyApplyToWindowYear(t *testing.T) {
	// Window labelled 2025 that runs into January 2026.
	window := Window{Start: NewDate(2025, 12, 29), End: NewDate(2026, 1, 14), Year: 2025, Location: time.UTC}
	excluded := Exclusions{}
	excluded.Add(2026, NewDate(2026, 1, 7))
	excluded.Add(2025, NewDate(2025, 12, 31))

	slots := Expand(wednesdayRule(), window, excluded)

	var dates []time.Time
	for _, s := range slots {
		dates = append(dates, s.Date)
	}
	assert.Equal(t, []time.Time{NewDate(2026, 1, 7), NewDate(2026, 1, 14)}, dates)
}

func TestExpand_EmptyWhenWeekdayNeverFallsInRange(t *testing.T) {
	window := Window{Start: NewDate(2026, 2, 2), End: NewDate(2026, 2, 3), Year: 2026}
	assert.Empty(t, Expand(wednesdayRule(), window, nil))
}

func TestExpand_DefaultsToUTCWithoutLocation(t *testing.T) {
	window := Window{Start: NewDate(2026, 2, 4), End: NewDate(2026, 2, 4), Year: 2026}
	slots := Expand(wednesdayRule(), window, nil)
	require.Len(t, slots, 1)
	assert.Equal(t, time.UTC, slots[0].StartsAt.Location())
}

func TestExpand_AcrossDaylightSavingChange(t *testing.T) {
	loc := auckland(t)
	// NZ daylight saving ends on 5 April 2026.
	window := Window{Start: NewDate(2026, 3, 30), End: NewDate(2026, 4, 13), Year: 2026, Location: loc}

	slots := Expand(Rule{Weekday: Monday, Start: MustTimeOfDay("15:30"), End: MustTimeOfDay("17:00")}, window, nil)

	require.Len(t, slots, 3)
	for _, s := range slots {
		local := s.StartsAt.In(loc)
		assert.Equal(t, 15, local.Hour())
		assert.Equal(t, 30, local.Minute())
	}
	_, before := slots[0].StartsAt.Zone()
	_, after := slots[2].StartsAt.Zone()
	assert.NotEqual(t, before, after)
}

// Every slot must land on the rule's weekday inside the window.
func TestExpand_WeekdayAndRangeProperties(t *testing.T) {
	loc := auckland(t)
	start := NewDate(2026, 1, 1)
	for weekday := Monday; weekday <= Sunday; weekday++ {
		for span := 0; span < 40; span++ {
			window := Window{Start: start.AddDate(0, 0, span%7), End: start.AddDate(0, 0, span), Year: 2026, Location: loc}
			rule := Rule{Weekday: weekday, Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("10:00")}

			for _, s := range Expand(rule, window, nil) {
				local := s.StartsAt.In(loc)
				assert.Equal(t, weekday, WeekdayOf(local))
				assert.False(t, s.Date.Before(Date(window.Start)))
				assert.False(t, s.Date.After(Date(window.End)))
				assert.True(t, s.StartsAt.Before(s.EndsAt))
			}
		}
	}
}

func TestExpand_FirstCandidate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		rule  Rule
		want  []time.Time
	}{
		{
			name:  "block starting on the weekday keeps its first day",
			start: NewDate(2026, 2, 4),
			rule:  wednesdayRule(),
			want:  []time.Time{NewDate(2026, 2, 4), NewDate(2026, 2, 11), NewDate(2026, 2, 18)},
		},
		{
			name:  "block starting after the weekday waits a week",
			start: NewDate(2026, 2, 5),
			rule:  wednesdayRule(),
			want:  []time.Time{NewDate(2026, 2, 11), NewDate(2026, 2, 18)},
		},
		{
			name:  "sunday rule from a monday start",
			start: NewDate(2026, 2, 2),
			rule:  Rule{Weekday: Sunday, Start: MustTimeOfDay("10:00"), End: MustTimeOfDay("11:00")},
			want:  []time.Time{NewDate(2026, 2, 8), NewDate(2026, 2, 15)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := Window{Start: tt.start, End: NewDate(2026, 2, 18), Year: 2026, Location: auckland(t)}
			var got []time.Time
			for _, s := range Expand(tt.rule, window, nil) {
				got = append(got, s.Date)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_InvertedWindowIsEmpty(t *testing.T) {
	window := Window{Start: NewDate(2026, 2, 18), End: NewDate(2026, 2, 4), Year: 2026}
	assert.Empty(t, Expand(wednesdayRule(), window, nil))
}

func TestRecurrenceSet(t *testing.T) {
	loc := auckland(t)
	window := Window{Start: NewDate(2026, 2, 4), End: NewDate(2026, 2, 18), Year: 2026, Location: loc}
	excluded := Exclusions{}
	excluded.Add(2026, NewDate(2026, 2, 11))
	excluded.Add(2027, NewDate(2027, 2, 10))

	set, err := RecurrenceSet(wednesdayRule(), window, excluded)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{time.Date(2026, 2, 11, 15, 30, 0, 0, loc)}, set.GetExDate())
	assert.Equal(t, []time.Time{
		time.Date(2026, 2, 4, 15, 30, 0, 0, loc),
		time.Date(2026, 2, 18, 15, 30, 0, 0, loc),
	}, set.All())

	_, err = RecurrenceSet(Rule{Weekday: 9, Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("10:00")}, window, nil)
	assert.Error(t, err)
}

func TestRuleValidate(t *testing.T) {
	assert.NoError(t, wednesdayRule().Validate())
	assert.Error(t, Rule{Weekday: 7, Start: MustTimeOfDay("09:00"), End: MustTimeOfDay("10:00")}.Validate())
	assert.Error(t, Rule{Weekday: Monday, Start: MustTimeOfDay("10:00"), End: MustTimeOfDay("10:00")}.Validate())
}

func TestInstantKey_IgnoresLocation(t *testing.T) {
	loc := auckland(t)
	local := time.Date(2026, 2, 4, 15, 30, 0, 0, loc)
	assert.Equal(t, InstantKey(local), InstantKey(local.UTC()))
	assert.NotEqual(t, InstantKey(local), InstantKey(local.Add(time.Minute)))
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("15:30")
	require.NoError(t, err)
	assert.Equal(t, "15:30", tod.String())
	assert.Equal(t, tod, TimeOfDayFromMicroseconds(tod.Microseconds()))

	withSeconds, err := ParseTimeOfDay("07:05:09")
	require.NoError(t, err)
	assert.Equal(t, "07:05:09", withSeconds.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	var decoded struct {
		At TimeOfDay `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"17:00"}`), &decoded))
	assert.Equal(t, MustTimeOfDay("17:00"), decoded.At)

	encoded, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"17:00"}`, string(encoded))
}

func TestRuleDescribe(t *testing.T) {
	assert.Equal(t, "Wed 3:30pm–5pm", wednesdayRule().Describe())
	assert.Equal(t, "Mon 12am–9:05am", Rule{Weekday: Monday, Start: MustTimeOfDay("00:00"), End: MustTimeOfDay("09:05")}.Describe())
	assert.Equal(t, "12pm", MustTimeOfDay("12:00").Kitchen())
}
