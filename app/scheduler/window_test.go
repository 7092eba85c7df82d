package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Susanoo/models"
)

func TestWindowEligibleAtNilWindow(t *testing.T) {
	at := time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC)
	assert.True(t, WindowEligibleAt(nil, at))
}

func TestWindowEligibleAtHours(t *testing.T) {
	window := &models.SendWindow{
		AllowedHours:    []int{9, 10, 11},
		AllowedWeekdays: []int{0, 1, 2, 3, 4, 5, 6},
	}

	// 2025-03-03 is a Monday
	assert.True(t, WindowEligibleAt(window, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)))
	assert.True(t, WindowEligibleAt(window, time.Date(2025, 3, 3, 11, 59, 0, 0, time.UTC)))
	assert.False(t, WindowEligibleAt(window, time.Date(2025, 3, 3, 8, 59, 0, 0, time.UTC)))
	assert.False(t, WindowEligibleAt(window, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)))
}

func TestWindowEligibleAtWeekdays(t *testing.T) {
	window := &models.SendWindow{
		AllowedHours:    []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23},
		AllowedWeekdays: []int{1, 2, 3, 4, 5},
	}

	// Monday through Friday allowed, weekend not
	assert.True(t, WindowEligibleAt(window, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)))
	assert.True(t, WindowEligibleAt(window, time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)))
	assert.False(t, WindowEligibleAt(window, time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)))
	assert.False(t, WindowEligibleAt(window, time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)))
}

func TestWindowEligibleAtConvertsToUTC(t *testing.T) {
	window := &models.SendWindow{
		AllowedHours:    []int{9},
		AllowedWeekdays: []int{1},
	}

	// 13:30 at UTC+4:30 is 09:00 UTC on the same Monday
	tehran := time.FixedZone("UTC+4:30", int(4*time.Hour+30*time.Minute)/int(time.Second))
	local := time.Date(2025, 3, 3, 13, 30, 0, 0, tehran)
	assert.True(t, WindowEligibleAt(window, local))
}

func TestNextEligibleInstantAlreadyEligible(t *testing.T) {
	window := &models.SendWindow{
		AllowedHours:    []int{9, 10},
		AllowedWeekdays: []int{0, 1, 2, 3, 4, 5, 6},
	}

	from := time.Date(2025, 3, 3, 9, 17, 42, 0, time.UTC)
	assert.Equal(t, from, NextEligibleInstant(window, from))
}

func TestNextEligibleInstantAdvancesToNextHour(t *testing.T) {
	window := &models.SendWindow{
		AllowedHours:    []int{14},
		AllowedWeekdays: []int{0, 1, 2, 3, 4, 5, 6},
	}

	from := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	next := NextEligibleInstant(window, from)
	assert.Equal(t, time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC), next)
}

func TestNextEligibleInstantCrossesDays(t *testing.T) {
	// Only Wednesday at 05:00
	window := &models.SendWindow{
		AllowedHours:    []int{5},
		AllowedWeekdays: []int{3},
	}

	// From Monday noon the next slot is Wednesday 05:00
	from := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	next := NextEligibleInstant(window, from)
	assert.Equal(t, time.Date(2025, 3, 5, 5, 0, 0, 0, time.UTC), next)
	assert.True(t, WindowEligibleAt(window, next))
}

func TestNextEligibleInstantNilWindow(t *testing.T) {
	from := time.Date(2025, 3, 3, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, from, NextEligibleInstant(nil, from))
}

func TestValidateWindow(t *testing.T) {
	t.Run("NilWindowIsValid", func(t *testing.T) {
		assert.NoError(t, ValidateWindow(nil))
	})

	t.Run("ValidWindow", func(t *testing.T) {
		window := &models.SendWindow{
			AllowedHours:    []int{9, 17},
			AllowedWeekdays: []int{1, 5},
		}
		assert.NoError(t, ValidateWindow(window))
	})

	t.Run("NoHours", func(t *testing.T) {
		window := &models.SendWindow{AllowedWeekdays: []int{1}}
		err := ValidateWindow(window)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no hours")
	})

	t.Run("NoWeekdays", func(t *testing.T) {
		window := &models.SendWindow{AllowedHours: []int{9}}
		err := ValidateWindow(window)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no weekdays")
	})

	t.Run("HourOutOfRange", func(t *testing.T) {
		window := &models.SendWindow{
			AllowedHours:    []int{24},
			AllowedWeekdays: []int{1},
		}
		assert.Error(t, ValidateWindow(window))
	})

	t.Run("WeekdayOutOfRange", func(t *testing.T) {
		window := &models.SendWindow{
			AllowedHours:    []int{9},
			AllowedWeekdays: []int{7},
		}
		assert.Error(t, ValidateWindow(window))
	})
}
