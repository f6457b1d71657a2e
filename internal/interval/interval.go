package interval

import (
	"fmt"
	"sort"
	"time"

	"fitsync-schedule/pkg/response"
)

// Interval is a half-open time range [Start, End). Timestamps are compared
// exactly at minute granularity; sub-minute precision is rejected up front
// rather than rounded.
type Interval struct {
	Start time.Time
	End   time.Time
}

const Granularity = time.Minute

// New validates and returns an interval. Start must be strictly before End
// and both bounds must be aligned to the minute.
func New(start, end time.Time) (Interval, error) {
	const op = "interval.New"

	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%s: zero bound: %w", op, response.ErrInvalidInterval)
	}
	if !start.Truncate(Granularity).Equal(start) || !end.Truncate(Granularity).Equal(end) {
		return Interval{}, fmt.Errorf("%s: bounds not minute-aligned: %w", op, response.ErrInvalidInterval)
	}
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%s: start is not before end: %w", op, response.ErrInvalidInterval)
	}

	return Interval{Start: start, End: end}, nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Covers reports whether target lies fully within container.
func Covers(container, target Interval) bool {
	return !container.Start.After(target.Start) && !container.End.Before(target.End)
}

// CoveredBy reports whether target is fully covered by the union of set.
func CoveredBy(target Interval, set []Interval) bool {
	for _, m := range Merge(set) {
		if Covers(m, target) {
			return true
		}
	}
	return false
}

// Merge normalizes a set of intervals into the minimal sorted sequence of
// non-overlapping intervals with the same union. Touching intervals are
// coalesced. The result does not depend on input order.
func Merge(set []Interval) []Interval {
	if len(set) == 0 {
		return nil
	}

	sorted := make([]Interval, len(set))
	copy(sorted, set)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// Subtract returns container minus the union of cutouts, as a sorted sequence
// of non-overlapping intervals. Cutouts outside the container are ignored.
func Subtract(container Interval, cutouts []Interval) []Interval {
	free := []Interval{container}

	for _, cut := range Merge(cutouts) {
		var next []Interval
		for _, iv := range free {
			if !Overlaps(iv, cut) {
				next = append(next, iv)
				continue
			}
			if cut.Start.After(iv.Start) {
				next = append(next, Interval{Start: iv.Start, End: cut.Start})
			}
			if cut.End.Before(iv.End) {
				next = append(next, Interval{Start: cut.End, End: iv.End})
			}
		}
		free = next
	}

	return free
}

// Clamp trims iv to the window, returning a zero interval when they do not
// overlap.
func Clamp(iv, window Interval) Interval {
	if !Overlaps(iv, window) {
		return Interval{}
	}
	out := iv
	if out.Start.Before(window.Start) {
		out.Start = window.Start
	}
	if out.End.After(window.End) {
		out.End = window.End
	}
	return out
}
