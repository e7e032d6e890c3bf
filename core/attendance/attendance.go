// Package attendance aggregates monthly attendance into report totals.
package attendance

import (
	"math"
	"sort"
	"time"
)

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Monthly is the attendance of one student for one month.
type Monthly struct {
	WorkingDays int     `json:"working_days" validate:"gte=0"`
	PresentDays int     `json:"present_days" validate:"gte=0,ltefield=WorkingDays"`
	Percentage  float64 `json:"attendance_percentage"`
}

// Totals is the sum of a set of Monthly.
type Totals struct {
	WorkingDays int     `json:"total_working_days"`
	PresentDays int     `json:"total_present_days"`
	Percentage  float64 `json:"total_percentage"`
}

// Percentage returns present/working*100 rounded to one decimal, or 0 when working is 0.
func Percentage(present, working int) float64 {
	if working <= 0 {
		return 0
	}
	return math.Round(float64(present)/float64(working)*1000) / 10
}

// NewMonthly returns a Monthly with its percentage computed.
func NewMonthly(working, present int) Monthly {
	return Monthly{WorkingDays: working, PresentDays: present, Percentage: Percentage(present, working)}
}

// Aggregate sums `months`. The result is the zero Totals for empty input.
func Aggregate(months map[int]Monthly) Totals {
	var t Totals
	for _, m := range months {
		t.WorkingDays += m.WorkingDays
		t.PresentDays += m.PresentDays
	}
	t.Percentage = Percentage(t.PresentDays, t.WorkingDays)
	return t
}

// Months returns the keys of `months` in ascending order.
func Months(months map[int]Monthly) []int {
	keys := make([]int, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MonthName returns the English name of month `m` (1-12), or "N/A".
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return "N/A"
	}
	return monthNames[m-1]
}

// WorkingDaysBetween counts the weekdays (Mon-Fri) between `start` and `end`, both inclusive.
func WorkingDaysBetween(start, end time.Time) int {
	start = truncateDay(start)
	end = truncateDay(end)
	var n int
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int
	Month int
}

func (m MonthRef) First() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (m MonthRef) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// Window returns the `n` calendar months ending with the month of `end`, oldest first.
func Window(end time.Time, n int) []MonthRef {
	if n <= 0 {
		return nil
	}
	first := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	refs := make([]MonthRef, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, -(n - 1 - i), 0)
		refs[i] = MonthRef{Year: m.Year(), Month: int(m.Month())}
	}
	return refs
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
