package service

import (
	"context"
	"fmt"
	"time"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// CreateAvailabilitySlot declares a window during which the trainer is
// bookable. Unless overlapping slots are allowed by configuration, a slot
// that overlaps an existing active slot of the same trainer is rejected;
// when they are allowed the index treats them as a union of coverage.
func (s *Service) CreateAvailabilitySlot(ctx context.Context, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error) {
	const op = "service.CreateAvailabilitySlot"

	slot, err := slotFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.withTrainerScope(ctx, req.TrainerID, func() error {
		if !s.opts.AllowOverlappingSlots {
			existing, err := s.store.ListTrainerAvailability(ctx, req.TrainerID)
			if err != nil {
				return err
			}
			for _, other := range existing {
				if slotsOverlap(slot, &other) {
					return fmt.Errorf("overlaps slot %s: %w", other.ID, response.ErrConflict)
				}
			}
		}

		id, err := s.store.CreateAvailabilitySlot(ctx, slot)
		if err != nil {
			return err
		}
		slot.ID = id

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, req.TrainerID)

	return slotToResponse(slot), nil
}

func (s *Service) GetTrainerAvailability(ctx context.Context, trainerID string) ([]*api.AvailabilityResponse, error) {
	const op = "service.GetTrainerAvailability"

	slots, err := s.store.ListTrainerAvailability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.AvailabilityResponse, 0, len(slots))
	for i := range slots {
		result = append(result, slotToResponse(&slots[i]))
	}

	return result, nil
}

// DeleteAvailabilitySlot soft-deletes: the slot stops contributing coverage
// but stays on record.
func (s *Service) DeleteAvailabilitySlot(ctx context.Context, id string) error {
	const op = "service.DeleteAvailabilitySlot"

	slot, err := s.store.GetAvailabilitySlot(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.withTrainerScope(ctx, slot.TrainerID, func() error {
		return s.store.DeactivateAvailabilitySlot(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, slot.TrainerID)

	return nil
}

func slotFromRequest(req *api.AvailabilityRequest) (*models.AvailabilitySlot, error) {
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %v: %w", err, response.ErrInvalidInterval)
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time: %v: %w", err, response.ErrInvalidInterval)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end_time is not after start_time: %w", response.ErrInvalidInterval)
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid valid_from: %v: %w", err, response.ErrInvalidInterval)
	}

	var validUntil *time.Time
	if req.ValidUntil != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_until: %v: %w", err, response.ErrInvalidInterval)
		}
		if !parsed.After(validFrom) {
			return nil, fmt.Errorf("valid_until is not after valid_from: %w", response.ErrInvalidInterval)
		}
		utc := parsed.UTC()
		validUntil = &utc
	}

	recurrence := models.Recurrence(req.Recurrence)
	if recurrence == "" {
		recurrence = models.RecurrenceWeekly
	}

	return &models.AvailabilitySlot{
		TrainerID:  req.TrainerID,
		Weekday:    req.Weekday,
		StartClock: req.StartTime,
		EndClock:   req.EndTime,
		Recurrence: recurrence,
		ValidFrom:  validFrom.UTC(),
		ValidUntil: validUntil,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// slotsOverlap is a structural check used at creation time; it deliberately
// errs on the side of reporting overlap for slots that would ever produce
// intersecting coverage.
func slotsOverlap(a, b *models.AvailabilitySlot) bool {
	if a.TrainerID != b.TrainerID {
		return false
	}
	if !validityOverlaps(a, b) {
		return false
	}
	if !clockOverlaps(a, b) {
		return false
	}

	// a weekly slot meets another weekly slot only on a shared weekday;
	// anything involving a one-off is pinned to the one-off's date
	aWeekly := a.Recurrence == models.RecurrenceWeekly
	bWeekly := b.Recurrence == models.RecurrenceWeekly

	switch {
	case aWeekly && bWeekly:
		return a.Weekday == b.Weekday
	case aWeekly:
		return int(b.ValidFrom.Weekday()) == a.Weekday
	case bWeekly:
		return int(a.ValidFrom.Weekday()) == b.Weekday
	default:
		return sameDate(a.ValidFrom, b.ValidFrom)
	}
}

func validityOverlaps(a, b *models.AvailabilitySlot) bool {
	if a.ValidUntil != nil && !a.ValidUntil.After(b.ValidFrom) {
		return false
	}
	if b.ValidUntil != nil && !b.ValidUntil.After(a.ValidFrom) {
		return false
	}
	return true
}

func clockOverlaps(a, b *models.AvailabilitySlot) bool {
	return a.StartClock < b.EndClock && b.StartClock < a.EndClock
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func slotToResponse(slot *models.AvailabilitySlot) *api.AvailabilityResponse {
	return &api.AvailabilityResponse{
		ID:         slot.ID,
		TrainerID:  slot.TrainerID,
		Weekday:    slot.Weekday,
		StartTime:  slot.StartClock,
		EndTime:    slot.EndClock,
		Recurrence: string(slot.Recurrence),
		ValidFrom:  slot.ValidFrom,
		ValidUntil: slot.ValidUntil,
		Active:     slot.Active,
	}
}
