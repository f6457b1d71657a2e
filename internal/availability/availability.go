package availability

import (
	"fmt"
	"time"

	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
)

// Index materializes a trainer's bookable time. It is a pure computation over
// slots and bookings the caller has already loaded; it holds no state of its
// own besides configuration.
type Index struct {
	// CancellationGrace keeps a cancelled booking's interval out of the free
	// set for this long after cancellation. Zero disables the grace period.
	CancellationGrace time.Duration

	Now func() time.Time
}

func NewIndex(grace time.Duration) *Index {
	return &Index{
		CancellationGrace: grace,
		Now:               time.Now,
	}
}

// FreeIntervals returns the free sub-ranges of window for one trainer:
// the union of all expanded availability slots intersecting the window,
// minus intervals held by active bookings. Overlapping slots count once
// (coverage is the union). The result is sorted and deterministic.
func (ix *Index) FreeIntervals(window interval.Interval, slots []models.AvailabilitySlot, bookings []models.Booking) ([]interval.Interval, error) {
	const op = "availability.FreeIntervals"

	var covered []interval.Interval
	for _, slot := range slots {
		if !slot.Active {
			continue
		}
		expanded, err := Expand(slot, window)
		if err != nil {
			return nil, fmt.Errorf("%s: slot %s: %w", op, slot.ID, err)
		}
		covered = append(covered, expanded...)
	}
	if len(covered) == 0 {
		return nil, nil
	}

	taken := ix.occupied(bookings)

	var free []interval.Interval
	for _, c := range interval.Merge(covered) {
		free = append(free, interval.Subtract(c, taken)...)
	}

	return free, nil
}

func (ix *Index) occupied(bookings []models.Booking) []interval.Interval {
	now := ix.now()

	var taken []interval.Interval
	for _, b := range bookings {
		if b.Status.IsActive() {
			taken = append(taken, interval.Interval{Start: b.Start, End: b.End})
			continue
		}
		if b.Status == models.BookingCancelled && ix.CancellationGrace > 0 &&
			b.CancelledAt != nil && now.Before(b.CancelledAt.Add(ix.CancellationGrace)) {
			taken = append(taken, interval.Interval{Start: b.Start, End: b.End})
		}
	}

	return taken
}

func (ix *Index) now() time.Time {
	if ix.Now != nil {
		return ix.Now()
	}
	return time.Now()
}

// Expand projects a slot onto concrete intervals inside window. Weekly slots
// produce one interval per matching weekday between ValidFrom and ValidUntil;
// expansion is bounded by window.End even for open-ended slots. One-off slots
// yield at most one interval on ValidFrom's date. Results are clamped to the
// window and never depend on iteration order.
func Expand(slot models.AvailabilitySlot, window interval.Interval) ([]interval.Interval, error) {
	const op = "availability.Expand"

	startH, startM, err := parseClock(slot.StartClock)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, err)
	}
	endH, endM, err := parseClock(slot.EndClock)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid end_time: %w", op, err)
	}

	loc := window.Start.Location()

	if slot.Recurrence != models.RecurrenceWeekly {
		day := slot.ValidFrom.In(loc)
		iv, ok := dayInterval(day, startH, startM, endH, endM, loc)
		if !ok {
			return nil, nil
		}
		if clamped := interval.Clamp(iv, window); !clamped.IsZero() {
			return []interval.Interval{clamped}, nil
		}
		return nil, nil
	}

	from := slot.ValidFrom.In(loc)
	if from.Before(window.Start) {
		from = window.Start
	}
	until := window.End
	if slot.ValidUntil != nil && slot.ValidUntil.In(loc).Before(until) {
		until = slot.ValidUntil.In(loc)
	}

	var out []interval.Interval
	for d := truncateToDate(from, loc); d.Before(until); d = d.AddDate(0, 0, 1) {
		if int(d.Weekday()) != slot.Weekday {
			continue
		}
		iv, ok := dayInterval(d, startH, startM, endH, endM, loc)
		if !ok {
			continue
		}
		// validity bounds cut the day's window, not just the day list
		if iv.Start.Before(slot.ValidFrom) {
			continue
		}
		if slot.ValidUntil != nil && iv.End.After(*slot.ValidUntil) {
			continue
		}
		if clamped := interval.Clamp(iv, window); !clamped.IsZero() {
			out = append(out, clamped)
		}
	}

	return out, nil
}

func dayInterval(day time.Time, startH, startM, endH, endM int, loc *time.Location) (interval.Interval, bool) {
	start := time.Date(day.Year(), day.Month(), day.Day(), startH, startM, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endH, endM, 0, 0, loc)
	if !end.After(start) {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: start, End: end}, true
}

func truncateToDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func parseClock(s string) (hour, min int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
