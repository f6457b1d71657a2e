package conflict

import (
	"fmt"
	"strings"
	"time"

	"fitsync-schedule/internal/availability"
	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

type ReasonType string

const (
	ReasonOverlap             ReasonType = "OVERLAP"
	ReasonOutsideAvailability ReasonType = "OUTSIDE_AVAILABILITY"
	ReasonPastCutoff          ReasonType = "PAST_CUTOFF"
)

type Reason struct {
	Type          ReasonType `json:"type"`
	WithBookingID string     `json:"with_booking_id,omitempty"`
}

// Report is the verdict for one candidate interval. Reasons keep the check
// order: cutoff first, then availability, then overlaps in booking order.
type Report struct {
	Conflicting bool     `json:"conflicting"`
	Reasons     []Reason `json:"reasons,omitempty"`
}

// Error carries a conflicting report across the service boundary. It unwraps
// to response.ErrConflict so handlers can match it with errors.Is.
type Error struct {
	Report Report
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Report.Reasons))
	for _, r := range e.Report.Reasons {
		if r.WithBookingID != "" {
			parts = append(parts, fmt.Sprintf("%s(%s)", r.Type, r.WithBookingID))
			continue
		}
		parts = append(parts, string(r.Type))
	}
	return "booking conflict: " + strings.Join(parts, ", ")
}

func (e *Error) Unwrap() error {
	return response.ErrConflict
}

// Detector validates candidate intervals against a trainer's calendar.
// It is pure over the slots and bookings handed to it; loading them is the
// coordinator's job so the data window is explicit.
type Detector struct {
	Index       *availability.Index
	MinLeadTime time.Duration
	Now         func() time.Time
}

func NewDetector(index *availability.Index, minLeadTime time.Duration) *Detector {
	return &Detector{
		Index:       index,
		MinLeadTime: minLeadTime,
		Now:         time.Now,
	}
}

// Check runs the full rule sequence and reports every violated rule, not just
// the first. A booking being rescheduled passes its own id as excludeBookingID
// so it never conflicts with itself.
func (d *Detector) Check(candidate interval.Interval, excludeBookingID string, slots []models.AvailabilitySlot, bookings []models.Booking) (Report, error) {
	const op = "conflict.Check"

	var report Report

	if candidate.Start.Before(d.now().Add(d.MinLeadTime)) {
		report.Reasons = append(report.Reasons, Reason{Type: ReasonPastCutoff})
	}

	// Coverage is judged against slot coverage minus grace holdouts only.
	// Active bookings are reported as Overlap below, with the offending id,
	// instead of collapsing into a second OutsideAvailability reason.
	free, err := d.Index.FreeIntervals(candidate, slots, inactiveOnly(bookings))
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}
	if !interval.CoveredBy(candidate, free) {
		report.Reasons = append(report.Reasons, Reason{Type: ReasonOutsideAvailability})
	}

	for _, b := range bookings {
		if b.ID == excludeBookingID || !b.Status.IsActive() {
			continue
		}
		if interval.Overlaps(candidate, interval.Interval{Start: b.Start, End: b.End}) {
			report.Reasons = append(report.Reasons, Reason{Type: ReasonOverlap, WithBookingID: b.ID})
		}
	}

	report.Conflicting = len(report.Reasons) > 0

	return report, nil
}

func inactiveOnly(bookings []models.Booking) []models.Booking {
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.IsActive() {
			out = append(out, b)
		}
	}
	return out
}

func (d *Detector) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
