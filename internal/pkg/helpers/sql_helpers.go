package helpers

import (
	"time"

	"github.com/afterschool/sessions-api/internal/pkg/schedule"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgDate converts a calendar date to a Postgres date value.
func PgDate(d time.Time) pgtype.Date {
	return pgtype.Date{Time: schedule.Date(d), Valid: true}
}

// PgTime converts an optional time of day to a Postgres time value.
// A nil pointer becomes SQL NULL.
func PgTime(t *schedule.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

// TimeOfDayFromPg converts a scanned Postgres time to an optional time of day.
func TimeOfDayFromPg(t pgtype.Time) *schedule.TimeOfDay {
	if !t.Valid {
		return nil
	}
	tod := schedule.TimeOfDayFromMicroseconds(t.Microseconds)
	return &tod
}

// PgWeekday converts an optional weekday to a Postgres smallint.
func PgWeekday(w *schedule.Weekday) pgtype.Int2 {
	if w == nil {
		return pgtype.Int2{}
	}
	return pgtype.Int2{Int16: int16(*w), Valid: true}
}

// WeekdayFromPg converts a scanned smallint to an optional weekday.
func WeekdayFromPg(v pgtype.Int2) *schedule.Weekday {
	if !v.Valid {
		return nil
	}
	w := schedule.Weekday(v.Int16)
	return &w
}
