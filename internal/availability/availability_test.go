package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
)

// Monday 2025-03-03.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func day(d int, hour, min int) time.Time {
	return monday.AddDate(0, 0, d).Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func window(from, to time.Time) interval.Interval {
	return interval.Interval{Start: from, End: to}
}

func weeklySlot(weekday int, startClock, endClock string, validFrom time.Time, validUntil *time.Time) models.AvailabilitySlot {
	return models.AvailabilitySlot{
		ID:         "slot-1",
		TrainerID:  "trainer-1",
		Weekday:    weekday,
		StartClock: startClock,
		EndClock:   endClock,
		Recurrence: models.RecurrenceWeekly,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		Active:     true,
	}
}

func TestExpand(t *testing.T) {
	t.Run("weekly slot projects onto each matching weekday", func(t *testing.T) {
		slot := weeklySlot(1, "09:00", "12:00", monday, nil) // Mondays

		got, err := Expand(slot, window(monday, monday.AddDate(0, 0, 14)))
		require.NoError(t, err)

		assert.Equal(t, []interval.Interval{
			{Start: day(0, 9, 0), End: day(0, 12, 0)},
			{Start: day(7, 9, 0), End: day(7, 12, 0)},
		}, got)
	})

	t.Run("open-ended slot bounded by window end", func(t *testing.T) {
		slot := weeklySlot(1, "09:00", "12:00", monday, nil)

		got, err := Expand(slot, window(monday, monday.AddDate(0, 0, 28)))
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("valid_until cuts expansion", func(t *testing.T) {
		until := monday.AddDate(0, 0, 8)
		slot := weeklySlot(1, "09:00", "12:00", monday, &until)

		got, err := Expand(slot, window(monday, monday.AddDate(0, 0, 28)))
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{
			{Start: day(0, 9, 0), End: day(0, 12, 0)},
			{Start: day(7, 9, 0), End: day(7, 12, 0)},
		}, got)
	})

	t.Run("occurrence clamped to window", func(t *testing.T) {
		slot := weeklySlot(1, "09:00", "12:00", monday, nil)

		got, err := Expand(slot, window(day(0, 10, 0), day(0, 11, 0)))
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 10, 0), End: day(0, 11, 0)}}, got)
	})

	t.Run("one-off slot yields single interval", func(t *testing.T) {
		slot := models.AvailabilitySlot{
			ID:         "slot-2",
			TrainerID:  "trainer-1",
			StartClock: "14:00",
			EndClock:   "16:00",
			Recurrence: models.RecurrenceNone,
			ValidFrom:  day(2, 0, 0),
			Active:     true,
		}

		got, err := Expand(slot, window(monday, monday.AddDate(0, 0, 14)))
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(2, 14, 0), End: day(2, 16, 0)}}, got)
	})

	t.Run("malformed clock fails", func(t *testing.T) {
		slot := weeklySlot(1, "9am", "12:00", monday, nil)

		_, err := Expand(slot, window(monday, monday.AddDate(0, 0, 7)))
		assert.Error(t, err)
	})
}

func TestFreeIntervals(t *testing.T) {
	ix := NewIndex(0)
	ix.Now = func() time.Time { return monday }

	slot := weeklySlot(1, "09:00", "12:00", monday, nil)
	win := window(monday, monday.AddDate(0, 0, 1))

	booked := func(id string, start, end time.Time, status models.BookingStatus) models.Booking {
		return models.Booking{ID: id, TrainerID: "trainer-1", Start: start, End: end, Status: status}
	}

	t.Run("no bookings returns full coverage", func(t *testing.T) {
		free, err := ix.FreeIntervals(win, []models.AvailabilitySlot{slot}, nil)
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 9, 0), End: day(0, 12, 0)}}, free)
	})

	t.Run("active booking subtracted, cancelled ignored", func(t *testing.T) {
		free, err := ix.FreeIntervals(win, []models.AvailabilitySlot{slot}, []models.Booking{
			booked("b1", day(0, 9, 0), day(0, 10, 0), models.BookingRequested),
			booked("b2", day(0, 10, 0), day(0, 11, 0), models.BookingCancelled),
		})
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 10, 0), End: day(0, 12, 0)}}, free)
	})

	t.Run("overlapping slots count as union", func(t *testing.T) {
		second := weeklySlot(1, "11:00", "14:00", monday, nil)
		second.ID = "slot-3"

		free, err := ix.FreeIntervals(win, []models.AvailabilitySlot{slot, second}, nil)
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 9, 0), End: day(0, 14, 0)}}, free)
	})

	t.Run("inactive slot contributes nothing", func(t *testing.T) {
		off := slot
		off.Active = false

		free, err := ix.FreeIntervals(win, []models.AvailabilitySlot{off}, nil)
		require.NoError(t, err)
		assert.Empty(t, free)
	})

	t.Run("cancellation grace holds interval out", func(t *testing.T) {
		graced := NewIndex(30 * time.Minute)
		cancelledAt := monday.Add(-10 * time.Minute)
		graced.Now = func() time.Time { return monday }

		b := booked("b3", day(0, 9, 0), day(0, 10, 0), models.BookingCancelled)
		b.CancelledAt = &cancelledAt

		free, err := graced.FreeIntervals(win, []models.AvailabilitySlot{slot}, []models.Booking{b})
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 10, 0), End: day(0, 12, 0)}}, free)

		// past the grace period the interval reappears
		graced.Now = func() time.Time { return monday.Add(time.Hour) }
		free, err = graced.FreeIntervals(win, []models.AvailabilitySlot{slot}, []models.Booking{b})
		require.NoError(t, err)
		assert.Equal(t, []interval.Interval{{Start: day(0, 9, 0), End: day(0, 12, 0)}}, free)
	})
}
