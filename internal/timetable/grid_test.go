package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutoring-api/pkg/config"
)

func testScheduleConfig(dayPeriods [7]int) config.ScheduleConfig {
	return config.ScheduleConfig{
		DayPeriods:  dayPeriods,
		PeriodNames: []string{"1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th"},
	}
}

func TestGridSlotOrder(t *testing.T) {
	grid, err := New(testScheduleConfig([7]int{2, 0, 3, 0, 0, 0, 0}))
	require.NoError(t, err)

	expected := []Slot{"MB", "M1", "M2", "MA", "WB", "W1", "W2", "W3", "WA"}
	assert.Equal(t, expected, grid.Slots())
	assert.Equal(t, len(expected), grid.Count())

	// Repeated enumeration must be stable.
	assert.Equal(t, grid.Slots(), grid.Slots())
}

func TestGridCountMatchesConfiguration(t *testing.T) {
	cases := []struct {
		name       string
		dayPeriods [7]int
	}{
		{"five day week", [7]int{8, 8, 4, 4, 8, 0, 0}},
		{"single day", [7]int{0, 0, 0, 0, 2, 0, 0}},
		{"all seven days", [7]int{1, 1, 1, 1, 1, 1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grid, err := New(testScheduleConfig(tc.dayPeriods))
			require.NoError(t, err)

			want := 0
			for _, count := range tc.dayPeriods {
				if count > 0 {
					want += count + 2
				}
			}
			assert.Equal(t, want, grid.Count())
		})
	}
}

func TestGridRejectsEmptyWeek(t *testing.T) {
	_, err := New(testScheduleConfig([7]int{0, 0, 0, 0, 0, 0, 0}))
	assert.Error(t, err)
}

func TestGridRejectsTooFewPeriodNames(t *testing.T) {
	cfg := config.ScheduleConfig{
		DayPeriods:  [7]int{3, 0, 0, 0, 0, 0, 0},
		PeriodNames: []string{"1st", "2nd"},
	}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestGridLabels(t *testing.T) {
	grid, err := New(testScheduleConfig([7]int{2, 0, 0, 0, 0, 0, 0}))
	require.NoError(t, err)

	assert.Equal(t, "Before School", grid.PeriodLabel("MB"))
	assert.Equal(t, "1st Period", grid.PeriodLabel("M1"))
	assert.Equal(t, "2nd Period", grid.PeriodLabel("M2"))
	assert.Equal(t, "After School", grid.PeriodLabel("MA"))

	assert.Equal(t, "Monday Before", grid.DisplayLabel("MB"))
	assert.Equal(t, "Monday 2nd", grid.DisplayLabel("M2"))
	assert.Equal(t, "Monday After", grid.DisplayLabel("MA"))
}

func TestGridPositions(t *testing.T) {
	grid, err := New(testScheduleConfig([7]int{0, 0, 0, 2, 0, 0, 0}))
	require.NoError(t, err)

	pos, ok := grid.Position("RB")
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	pos, _ = grid.Position("R2")
	assert.Equal(t, 2, pos)

	pos, _ = grid.Position("RA")
	assert.Equal(t, 3, pos)

	_, ok = grid.Position("R9")
	assert.False(t, ok)
}

func TestGridDayOf(t *testing.T) {
	grid, err := New(testScheduleConfig([7]int{2, 2, 0, 0, 0, 0, 0}))
	require.NoError(t, err)

	day, ok := grid.DayOf("T1")
	require.True(t, ok)
	assert.Equal(t, "Tuesday", day.Name)
	assert.Equal(t, time.Tuesday, day.Weekday)

	_, ok = grid.DayOf("F1")
	assert.False(t, ok)
}

func TestGridNextOccurrence(t *testing.T) {
	grid, err := New(testScheduleConfig([7]int{2, 0, 2, 0, 0, 0, 0}))
	require.NoError(t, err)

	// 2024-01-03 is a Wednesday.
	wednesday := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)

	next, err := grid.NextOccurrence("M1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), next)

	// Same weekday rolls a full week forward.
	next, err = grid.NextOccurrence("W1", wednesday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), next)

	_, err = grid.NextOccurrence("F1", wednesday)
	assert.Error(t, err)
}
