package service

import (
	"context"
	"fmt"
	"time"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
)

// CreateBooking validates the requested interval against the trainer's
// availability and commitments inside the trainer's exclusive scope, then
// commits a fresh booking. A conflicting request fails with *conflict.Error
// carrying every violated rule.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	candidate, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created *models.Booking

	err = s.withTrainerScope(ctx, req.TrainerID, func() error {
		cal, err := s.loadCalendar(ctx, req.TrainerID, candidate)
		if err != nil {
			return err
		}

		report, err := s.detector.Check(candidate, "", cal.slots, cal.bookings)
		if err != nil {
			return err
		}
		if report.Conflicting {
			return &conflict.Error{Report: report}
		}

		created = s.machine.New(req.TrainerID, req.ClientID, candidate, req.Notes)

		return retryInfra(ctx, func() error {
			return s.store.CreateBooking(ctx, created)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, req.TrainerID)
	s.events.BookingCreated(ctx, created)

	return toBookingResponse(created), nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBookingResponse(b), nil
}

func (s *Service) ListBookings(ctx context.Context, filters models.BookingFilters) ([]*api.BookingResponse, *api.Pagination, error) {
	const op = "service.ListBookings"

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PerPage < 1 {
		filters.PerPage = 20
	}

	bookings, total, err := s.store.ListBookings(ctx, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for i := range bookings {
		result = append(result, toBookingResponse(&bookings[i]))
	}

	pagination := &api.Pagination{
		Page:       filters.Page,
		PerPage:    filters.PerPage,
		TotalCount: total,
		TotalPages: (total + filters.PerPage - 1) / filters.PerPage,
	}

	return result, pagination, nil
}

// RescheduleBooking moves a booking to a new interval. Conflict detection
// excludes the booking's own id so it never conflicts with itself, and the
// booking is re-read inside the trainer's scope so the decision is made
// against committed state, not against what the caller last saw.
func (s *Service) RescheduleBooking(ctx context.Context, req *api.BookingRescheduleRequest) (*api.BookingResponse, error) {
	const op = "service.RescheduleBooking"

	candidate, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// the trainer id comes from the booking itself
	existing, err := s.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var moved *models.Booking

	err = s.withTrainerScope(ctx, existing.TrainerID, func() error {
		b, err := s.store.GetBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}

		cal, err := s.loadCalendar(ctx, b.TrainerID, candidate)
		if err != nil {
			return err
		}

		report, err := s.detector.Check(candidate, b.ID, cal.slots, cal.bookings)
		if err != nil {
			return err
		}
		if report.Conflicting {
			return &conflict.Error{Report: report}
		}

		prev := b.Version
		if err := s.machine.Reschedule(b, candidate, expectedVersion(req.ExpectedVersion)); err != nil {
			return err
		}

		moved = b

		return retryInfra(ctx, func() error {
			return s.store.UpdateBooking(ctx, b, prev)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, moved.TrainerID)

	return toBookingResponse(moved), nil
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string, req *api.BookingCancelRequest) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	cancelled, err := s.transition(ctx, bookingID, func(b *models.Booking) error {
		return s.machine.Cancel(b, req.CancellationReason, expectedVersion(req.ExpectedVersion))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, cancelled.TrainerID)
	s.events.BookingCancelled(ctx, cancelled)

	return toBookingResponse(cancelled), nil
}

func (s *Service) ConfirmBooking(ctx context.Context, bookingID string, req *api.BookingTransitionRequest) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	confirmed, err := s.transition(ctx, bookingID, func(b *models.Booking) error {
		return s.machine.Confirm(b, expectedVersion(req.ExpectedVersion))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBookingResponse(confirmed), nil
}

func (s *Service) CompleteBooking(ctx context.Context, bookingID string, req *api.BookingTransitionRequest) (*api.BookingResponse, error) {
	const op = "service.CompleteBooking"

	completed, err := s.transition(ctx, bookingID, func(b *models.Booking) error {
		return s.machine.Complete(b, expectedVersion(req.ExpectedVersion))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, completed.TrainerID)
	s.events.BookingCompleted(ctx, completed)

	return toBookingResponse(completed), nil
}

func (s *Service) MarkNoShow(ctx context.Context, bookingID string, req *api.BookingTransitionRequest) (*api.BookingResponse, error) {
	const op = "service.MarkNoShow"

	marked, err := s.transition(ctx, bookingID, func(b *models.Booking) error {
		return s.machine.MarkNoShow(b, expectedVersion(req.ExpectedVersion))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, marked.TrainerID)

	return toBookingResponse(marked), nil
}

// transition applies a state-machine step to a booking inside its trainer's
// scope and commits it with the optimistic version check intact.
func (s *Service) transition(ctx context.Context, bookingID string, step func(*models.Booking) error) (*models.Booking, error) {
	existing, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var out *models.Booking

	err = s.withTrainerScope(ctx, existing.TrainerID, func() error {
		b, err := s.store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		prev := b.Version
		if err := step(b); err != nil {
			return err
		}

		out = b

		return retryInfra(ctx, func() error {
			return s.store.UpdateBooking(ctx, b, prev)
		})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// FreeIntervals answers "when is this trainer bookable inside the window".
// Display reads may be served from the short-TTL cache; commit paths inside
// the coordinator never go through here and always recompute.
func (s *Service) FreeIntervals(ctx context.Context, trainerID string, from, to time.Time) (*api.FreeIntervalsResponse, error) {
	const op = "service.FreeIntervals"

	window, err := interval.New(from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	free, ok := s.cache.Get(ctx, trainerID, window)
	if !ok {
		cal, err := s.loadCalendar(ctx, trainerID, window)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		free, err = s.index.FreeIntervals(window, cal.slots, cal.bookings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.cache.Set(ctx, trainerID, window, free)
	}

	resp := &api.FreeIntervalsResponse{
		TrainerID: trainerID,
		From:      window.Start,
		To:        window.End,
		Free:      make([]api.IntervalPayload, 0, len(free)),
	}
	for _, iv := range free {
		resp.Free = append(resp.Free, api.IntervalPayload{Start: iv.Start, End: iv.End})
	}

	return resp, nil
}
