package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/availability"
	"fitsync-schedule/internal/booking"
	"fitsync-schedule/internal/cache"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/internal/events"
	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/lock"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// Store is the persistence contract the coordinator depends on. Data windows
// are explicit: the coordinator always says which trainer and which time
// range it is reasoning about.
type Store interface {
	// Availability
	CreateAvailabilitySlot(ctx context.Context, slot *models.AvailabilitySlot) (string, error)
	GetAvailabilitySlot(ctx context.Context, id string) (*models.AvailabilitySlot, error)
	LoadAvailability(ctx context.Context, trainerID string, window interval.Interval) ([]models.AvailabilitySlot, error)
	ListTrainerAvailability(ctx context.Context, trainerID string) ([]models.AvailabilitySlot, error)
	DeactivateAvailabilitySlot(ctx context.Context, id string) error

	// Bookings
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	LoadBookings(ctx context.Context, trainerID string, window interval.Interval) ([]models.Booking, error)
	ListBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error)
	UpdateBooking(ctx context.Context, b *models.Booking, prevVersion int64) error

	// Group sessions
	CreateGroupSession(ctx context.Context, sess *models.GroupSession) (string, error)
	GetGroupSession(ctx context.Context, id string) (*models.GroupSession, error)
	ListGroupSessions(ctx context.Context, page, perPage int) ([]models.GroupSession, int, error)
	LoadGroupSessions(ctx context.Context, trainerID string, window interval.Interval) ([]models.GroupSession, error)
	UpdateGroupSession(ctx context.Context, sess *models.GroupSession) error
}

// Options carry the scheduling policy knobs.
type Options struct {
	MinLeadTime           time.Duration
	AutoConfirm           bool
	CancellationGrace     time.Duration
	AllowOverlappingSlots bool
	LockTTL               time.Duration
	LockWait              time.Duration
}

// Service is the scheduling coordinator. Every mutation of a trainer's
// calendar runs detect-then-commit inside that trainer's exclusive scope, so
// two concurrent requests can never both pass conflict detection and both
// commit overlapping bookings. Operations on different trainers never block
// each other.
type Service struct {
	store    Store
	locker   lock.Locker
	cache    cache.FreeIntervalsCache
	events   events.Publisher
	index    *availability.Index
	detector *conflict.Detector
	machine  *booking.Machine
	opts     Options
}

func NewService(store Store, locker lock.Locker, freeCache cache.FreeIntervalsCache, pub events.Publisher, opts Options) *Service {
	if freeCache == nil {
		freeCache = cache.NopCache{}
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}

	index := availability.NewIndex(opts.CancellationGrace)

	return &Service{
		store:    store,
		locker:   locker,
		cache:    freeCache,
		events:   pub,
		index:    index,
		detector: conflict.NewDetector(index, opts.MinLeadTime),
		machine:  booking.NewMachine(opts.AutoConfirm),
		opts:     opts,
	}
}

// WithClock pins all time-dependent decisions to the given source; tests use
// this to make cutoff and elapsed-session checks deterministic.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.index.Now = now
	s.detector.Now = now
	s.machine.Now = now
	return s
}

// withTrainerScope runs fn inside the trainer's exclusive scope. The scope is
// released on every exit path; a request that cannot obtain it inside the
// configured wait reports response.ErrTimeout and applies nothing.
func (s *Service) withTrainerScope(ctx context.Context, trainerID string, fn func() error) error {
	key := fmt.Sprintf("trainer:%s", trainerID)

	if err := lock.Acquire(ctx, s.locker, key, s.opts.LockTTL, s.opts.LockWait); err != nil {
		return err
	}
	defer func() {
		_ = s.locker.Unlock(ctx, key)
	}()

	return fn()
}

// calendar is the authoritative snapshot of one trainer's commitments inside
// a window: availability slots, bookings, and scheduled group sessions
// folded in as active pseudo-bookings so they occupy calendar time the same
// way.
type calendar struct {
	slots    []models.AvailabilitySlot
	bookings []models.Booking
}

func (s *Service) loadCalendar(ctx context.Context, trainerID string, window interval.Interval) (*calendar, error) {
	const op = "service.loadCalendar"

	var cal calendar

	err := retryInfra(ctx, func() error {
		slots, err := s.store.LoadAvailability(ctx, trainerID, window)
		if err != nil {
			return fmt.Errorf("load availability: %w", err)
		}
		bookings, err := s.store.LoadBookings(ctx, trainerID, window)
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		sessions, err := s.store.LoadGroupSessions(ctx, trainerID, window)
		if err != nil {
			return fmt.Errorf("load group sessions: %w", err)
		}

		cal = calendar{slots: slots, bookings: bookings}
		for _, sess := range sessions {
			cal.bookings = append(cal.bookings, models.Booking{
				ID:        fmt.Sprintf("session:%s", sess.ID),
				TrainerID: sess.TrainerID,
				Start:     sess.Start,
				End:       sess.End,
				Status:    models.BookingConfirmed,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cal, nil
}

// retryInfra retries infrastructure faults with a short backoff. Business
// errors are never retried: a genuine conflict must surface verbatim, and
// the retry budget is kept small so a trainer's scope is not held long.
func retryInfra(ctx context.Context, fn func() error) error {
	const attempts = 3

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || isBusinessError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 50 * time.Millisecond):
		}
	}

	return err
}

func isBusinessError(err error) bool {
	return errors.Is(err, response.ErrNotFound) ||
		errors.Is(err, response.ErrConflict) ||
		errors.Is(err, response.ErrInvalidTransition) ||
		errors.Is(err, response.ErrStaleVersion) ||
		errors.Is(err, response.ErrInvalidInterval)
}

func parseInterval(startRaw, endRaw string) (interval.Interval, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("invalid start: %v: %w", err, response.ErrInvalidInterval)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("invalid end: %v: %w", err, response.ErrInvalidInterval)
	}

	return interval.New(start.UTC(), end.UTC())
}

func expectedVersion(v *int64) int64 {
	if v == nil {
		return booking.NoVersionCheck
	}
	return *v
}

func toBookingResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:                 b.ID,
		TrainerID:          b.TrainerID,
		ClientID:           b.ClientID,
		Start:              b.Start,
		End:                b.End,
		Status:             string(b.Status),
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}
