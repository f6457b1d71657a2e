package conflict

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync-schedule/internal/availability"
	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// Monday 2025-03-03; "now" is pinned to midnight so a 09:00 candidate is well
// past any reasonable lead time.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func newDetector(lead time.Duration) *Detector {
	ix := availability.NewIndex(0)
	ix.Now = func() time.Time { return monday }
	d := NewDetector(ix, lead)
	d.Now = func() time.Time { return monday }
	return d
}

func mondaySlot() []models.AvailabilitySlot {
	return []models.AvailabilitySlot{{
		ID:         "slot-1",
		TrainerID:  "trainer-1",
		Weekday:    1,
		StartClock: "09:00",
		EndClock:   "12:00",
		Recurrence: models.RecurrenceWeekly,
		ValidFrom:  monday,
		Active:     true,
	}}
}

func booking(id string, start, end time.Time, status models.BookingStatus) models.Booking {
	return models.Booking{ID: id, TrainerID: "trainer-1", Start: start, End: end, Status: status}
}

func TestCheck(t *testing.T) {
	d := newDetector(time.Hour)

	t.Run("clean candidate passes", func(t *testing.T) {
		report, err := d.Check(interval.Interval{Start: at(9, 0), End: at(10, 0)}, "", mondaySlot(), nil)
		require.NoError(t, err)
		assert.False(t, report.Conflicting)
		assert.Empty(t, report.Reasons)
	})

	t.Run("overlap reports the conflicting booking id", func(t *testing.T) {
		existing := []models.Booking{booking("bk-a", at(9, 0), at(10, 0), models.BookingRequested)}

		report, err := d.Check(interval.Interval{Start: at(9, 30), End: at(10, 30)}, "", mondaySlot(), existing)
		require.NoError(t, err)
		assert.True(t, report.Conflicting)
		assert.Equal(t, []Reason{{Type: ReasonOverlap, WithBookingID: "bk-a"}}, report.Reasons)
	})

	t.Run("back-to-back is not an overlap", func(t *testing.T) {
		existing := []models.Booking{booking("bk-a", at(9, 0), at(10, 0), models.BookingConfirmed)}

		report, err := d.Check(interval.Interval{Start: at(10, 0), End: at(11, 0)}, "", mondaySlot(), existing)
		require.NoError(t, err)
		assert.False(t, report.Conflicting)
	})

	t.Run("outside availability", func(t *testing.T) {
		report, err := d.Check(interval.Interval{Start: at(13, 0), End: at(14, 0)}, "", mondaySlot(), nil)
		require.NoError(t, err)
		assert.Equal(t, []Reason{{Type: ReasonOutsideAvailability}}, report.Reasons)
	})

	t.Run("partially outside availability", func(t *testing.T) {
		report, err := d.Check(interval.Interval{Start: at(11, 0), End: at(13, 0)}, "", mondaySlot(), nil)
		require.NoError(t, err)
		assert.Equal(t, []Reason{{Type: ReasonOutsideAvailability}}, report.Reasons)
	})

	t.Run("past cutoff when start is inside lead time", func(t *testing.T) {
		tight := newDetector(time.Hour)
		tight.Now = func() time.Time { return at(8, 30) } // 30 min before candidate

		report, err := tight.Check(interval.Interval{Start: at(9, 0), End: at(10, 0)}, "", mondaySlot(), nil)
		require.NoError(t, err)
		assert.True(t, report.Conflicting)
		assert.Equal(t, ReasonPastCutoff, report.Reasons[0].Type)
	})

	t.Run("all reasons reported in rule order", func(t *testing.T) {
		tight := newDetector(time.Hour)
		tight.Now = func() time.Time { return at(12, 30) }
		existing := []models.Booking{booking("bk-a", at(12, 0), at(14, 0), models.BookingConfirmed)}

		report, err := tight.Check(interval.Interval{Start: at(13, 0), End: at(14, 0)}, "", mondaySlot(), existing)
		require.NoError(t, err)
		assert.Equal(t, []Reason{
			{Type: ReasonPastCutoff},
			{Type: ReasonOutsideAvailability},
			{Type: ReasonOverlap, WithBookingID: "bk-a"},
		}, report.Reasons)
	})

	t.Run("cancelled bookings never overlap", func(t *testing.T) {
		existing := []models.Booking{booking("bk-a", at(9, 0), at(10, 0), models.BookingCancelled)}

		report, err := d.Check(interval.Interval{Start: at(9, 0), End: at(10, 0)}, "", mondaySlot(), existing)
		require.NoError(t, err)
		assert.False(t, report.Conflicting)
	})

	t.Run("reschedule excludes own booking", func(t *testing.T) {
		existing := []models.Booking{booking("bk-a", at(9, 0), at(10, 0), models.BookingConfirmed)}

		report, err := d.Check(interval.Interval{Start: at(9, 30), End: at(10, 30)}, "bk-a", mondaySlot(), existing)
		require.NoError(t, err)
		assert.False(t, report.Conflicting)
	})
}

func TestErrorUnwrap(t *testing.T) {
	err := &Error{Report: Report{
		Conflicting: true,
		Reasons:     []Reason{{Type: ReasonOverlap, WithBookingID: "bk-a"}},
	}}

	assert.True(t, errors.Is(err, response.ErrConflict))
	assert.Contains(t, err.Error(), "OVERLAP(bk-a)")
}
