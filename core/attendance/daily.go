package attendance

import (
	"time"

	"github.com/pkg/errors"
)

// Daily statuses
const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
	StatusExcused = "excused"
)

var errDayOutOfMonth = errors.New("day is outside the month")

// Day is the attendance status of one student for one date.
type Day struct {
	Date   time.Time `json:"date" validate:"required"`
	Status string    `json:"status" validate:"required,oneof=present late absent excused"`
}

func (d Day) counted() bool {
	return d.Status == StatusPresent || d.Status == StatusLate
}

// FromDaily rolls the daily statuses of `ref` up into a Monthly.
// Working days are the weekdays of the month; present and late days count as present.
// Duplicate dates count once.
func FromDaily(ref MonthRef, days []Day) (Monthly, error) {
	first, last := ref.First(), ref.Last()
	present := make(map[time.Time]bool, len(days))
	for _, d := range days {
		date := truncateDay(d.Date)
		if date.Before(first) || date.After(last) {
			return Monthly{}, errors.Wrapf(errDayOutOfMonth, "%s", d.Date.Format("2006-01-02"))
		}
		if d.counted() {
			present[date] = true
		}
	}

	working := WorkingDaysBetween(first, last)
	n := len(present)
	if n > working {
		// weekend classes: never report more than 100%
		working = n
	}
	return NewMonthly(working, n), nil
}
