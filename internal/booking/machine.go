package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// Machine owns booking lifecycle transitions. Every transition validates the
// current status, optionally checks an expected version, and bumps Version
// and UpdatedAt. Bookings are never deleted; Cancel is a status change.
//
//	Requested -> Confirmed -> Completed
//	Requested | Confirmed -> Cancelled
//	Confirmed -> NoShow
//
// Cancelled, Completed and NoShow are terminal.
type Machine struct {
	// AutoConfirm makes new bookings land directly in Confirmed.
	AutoConfirm bool

	Now func() time.Time
}

func NewMachine(autoConfirm bool) *Machine {
	return &Machine{
		AutoConfirm: autoConfirm,
		Now:         time.Now,
	}
}

// NoVersionCheck skips the optimistic concurrency check on a transition.
const NoVersionCheck int64 = -1

// New builds a fresh booking at version 0. The caller must have run conflict
// detection first; the machine does not re-check.
func (m *Machine) New(trainerID, clientID string, iv interval.Interval, notes string) *models.Booking {
	now := m.now()

	status := models.BookingRequested
	if m.AutoConfirm {
		status = models.BookingConfirmed
	}

	return &models.Booking{
		ID:        uuid.NewString(),
		TrainerID: trainerID,
		ClientID:  clientID,
		Start:     iv.Start,
		End:       iv.End,
		Status:    status,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   0,
	}
}

func (m *Machine) Confirm(b *models.Booking, expectedVersion int64) error {
	const op = "booking.Confirm"

	if err := m.guard(b, expectedVersion, models.BookingRequested); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.Status = models.BookingConfirmed
	m.bump(b)

	return nil
}

// Reschedule moves the booking to a new interval, preserving id and history.
// The caller re-runs conflict detection with the booking's own id excluded
// before committing.
func (m *Machine) Reschedule(b *models.Booking, iv interval.Interval, expectedVersion int64) error {
	const op = "booking.Reschedule"

	if err := m.guard(b, expectedVersion, models.BookingRequested, models.BookingConfirmed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.Start = iv.Start
	b.End = iv.End
	m.bump(b)

	return nil
}

func (m *Machine) Cancel(b *models.Booking, reason *string, expectedVersion int64) error {
	const op = "booking.Cancel"

	if err := m.guard(b, expectedVersion, models.BookingRequested, models.BookingConfirmed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := m.now()
	b.Status = models.BookingCancelled
	b.CancelledAt = &now
	b.CancellationReason = reason
	m.bump(b)

	return nil
}

func (m *Machine) Complete(b *models.Booking, expectedVersion int64) error {
	const op = "booking.Complete"

	if err := m.guardElapsed(b, expectedVersion); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.Status = models.BookingCompleted
	m.bump(b)

	return nil
}

func (m *Machine) MarkNoShow(b *models.Booking, expectedVersion int64) error {
	const op = "booking.MarkNoShow"

	if err := m.guardElapsed(b, expectedVersion); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	b.Status = models.BookingNoShow
	m.bump(b)

	return nil
}

// guardElapsed is the shared precondition for Complete and MarkNoShow: only a
// Confirmed booking whose interval has fully elapsed may be closed out.
func (m *Machine) guardElapsed(b *models.Booking, expectedVersion int64) error {
	if err := m.guard(b, expectedVersion, models.BookingConfirmed); err != nil {
		return err
	}
	if b.End.After(m.now()) {
		return fmt.Errorf("session not yet elapsed: %w", response.ErrInvalidTransition)
	}
	return nil
}

func (m *Machine) guard(b *models.Booking, expectedVersion int64, allowed ...models.BookingStatus) error {
	if expectedVersion != NoVersionCheck && b.Version != expectedVersion {
		return fmt.Errorf("expected version %d, have %d: %w", expectedVersion, b.Version, response.ErrStaleVersion)
	}

	for _, s := range allowed {
		if b.Status == s {
			return nil
		}
	}

	return fmt.Errorf("status %s: %w", b.Status, response.ErrInvalidTransition)
}

func (m *Machine) bump(b *models.Booking) {
	b.Version++
	b.UpdatedAt = m.now()
}

func (m *Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
