package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		months map[int]Monthly
		want   Totals
	}{
		{name: "empty", want: Totals{}},
		{
			name: "single month",
			months: map[int]Monthly{
				7: {WorkingDays: 22, PresentDays: 20, Percentage: 90.9},
			},
			want: Totals{WorkingDays: 22, PresentDays: 20, Percentage: 90.9},
		},
		{
			name: "sums",
			months: map[int]Monthly{
				6: {WorkingDays: 20, PresentDays: 18},
				7: {WorkingDays: 22, PresentDays: 20},
			},
			want: Totals{WorkingDays: 42, PresentDays: 38, Percentage: 90.5},
		},
		{
			name:   "no working days",
			months: map[int]Monthly{4: {}},
			want:   Totals{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.months))
		})
	}
}

func TestMonths(t *testing.T) {
	months := map[int]Monthly{12: {}, 2: {}, 10: {}, 1: {}}
	assert.Equal(t, []int{1, 2, 10, 12}, Months(months))
	assert.Empty(t, Months(nil))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", MonthName(1))
	assert.Equal(t, "July", MonthName(7))
	assert.Equal(t, "December", MonthName(12))
	assert.Equal(t, "N/A", MonthName(0))
	assert.Equal(t, "N/A", MonthName(13))
}

func TestWorkingDaysBetween(t *testing.T) {
	// July 2024 starts on a Monday and has 23 weekdays
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, WorkingDaysBetween(start, end))
	assert.Equal(t, 0, WorkingDaysBetween(end, start))

	sat := time.Date(2024, 7, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, WorkingDaysBetween(sat, sat.AddDate(0, 0, 1)))
}

func TestWindow(t *testing.T) {
	end := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []MonthRef{{2024, 12}, {2025, 1}}, Window(end, 2))
	assert.Equal(t, []MonthRef{{2025, 1}}, Window(end, 1))
	assert.Nil(t, Window(end, 0))

	ref := MonthRef{Year: 2024, Month: 2}
	assert.Equal(t, 29, ref.Last().Day())
}

func TestFromDaily(t *testing.T) {
	ref := MonthRef{Year: 2024, Month: 7}
	day := func(d int, status string) Day {
		return Day{Date: time.Date(2024, 7, d, 9, 30, 0, 0, time.UTC), Status: status}
	}

	t.Run("rolls up", func(t *testing.T) {
		got, err := FromDaily(ref, []Day{
			day(1, StatusPresent),
			day(2, StatusLate),
			day(2, StatusPresent), // duplicate date
			day(3, StatusAbsent),
			day(4, StatusExcused),
		})
		require.NoError(t, err)
		assert.Equal(t, 23, got.WorkingDays)
		assert.Equal(t, 2, got.PresentDays)
		assert.Equal(t, 8.7, got.Percentage)
	})

	t.Run("outside month", func(t *testing.T) {
		_, err := FromDaily(ref, []Day{{Date: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), Status: StatusPresent}})
		assert.Error(t, err)
	})
}
