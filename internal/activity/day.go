package activity

import (
	"time"

	"github.com/example/hifzbot/pkg/models"
)

// DayKey returns the local calendar day of t in loc as "YYYY-MM-DD".
// Every due-today, streak and daily log computation goes through this
// function so they agree on where a day starts.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = t.Location()
	}
	return t.In(loc).Format(models.DateLayout)
}

// DayBounds returns the start of the local day containing t and the start of the next one.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = t.Location()
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// previousDay returns the calendar day before the given "YYYY-MM-DD" date
func previousDay(date string) (string, error) {
	d, err := time.ParseInLocation(models.DateLayout, date, time.UTC)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, -1).Format(models.DateLayout), nil
}
