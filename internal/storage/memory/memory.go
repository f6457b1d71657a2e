package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// Storage is an in-memory store for tests and single-node local runs. It
// mirrors the Postgres store's contract, including the optimistic version
// check on booking updates.
type Storage struct {
	mu       sync.RWMutex
	slots    map[string]models.AvailabilitySlot
	bookings map[string]models.Booking
	sessions map[string]models.GroupSession
}

func New() *Storage {
	return &Storage{
		slots:    make(map[string]models.AvailabilitySlot),
		bookings: make(map[string]models.Booking),
		sessions: make(map[string]models.GroupSession),
	}
}

func (s *Storage) Close() error { return nil }

// Availability

func (s *Storage) CreateAvailabilitySlot(_ context.Context, slot *models.AvailabilitySlot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	s.slots[slot.ID] = *slot

	return slot.ID, nil
}

func (s *Storage) GetAvailabilitySlot(_ context.Context, id string) (*models.AvailabilitySlot, error) {
	const op = "storage.memory.GetAvailabilitySlot"

	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &slot, nil
}

func (s *Storage) LoadAvailability(_ context.Context, trainerID string, _ interval.Interval) ([]models.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AvailabilitySlot
	for _, slot := range s.slots {
		if slot.TrainerID == trainerID && slot.Active {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Storage) ListTrainerAvailability(ctx context.Context, trainerID string) ([]models.AvailabilitySlot, error) {
	return s.LoadAvailability(ctx, trainerID, interval.Interval{})
}

func (s *Storage) DeactivateAvailabilitySlot(_ context.Context, id string) error {
	const op = "storage.memory.DeactivateAvailabilitySlot"

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	slot.Active = false
	s.slots[id] = slot

	return nil
}

// Bookings

func (s *Storage) CreateBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookings[b.ID] = *b

	return nil
}

func (s *Storage) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	const op = "storage.memory.GetBooking"

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &b, nil
}

func (s *Storage) LoadBookings(_ context.Context, trainerID string, window interval.Interval) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Booking
	for _, b := range s.bookings {
		if b.TrainerID != trainerID {
			continue
		}
		if !window.IsZero() && !interval.Overlaps(window, interval.Interval{Start: b.Start, End: b.End}) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *Storage) ListBookings(_ context.Context, filters models.BookingFilters) ([]models.Booking, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.Booking
	for _, b := range s.bookings {
		if filters.TrainerID != nil && b.TrainerID != *filters.TrainerID {
			continue
		}
		if filters.ClientID != nil && b.ClientID != *filters.ClientID {
			continue
		}
		if filters.Status != nil && b.Status != *filters.Status {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.After(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := (filters.Page - 1) * filters.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + filters.PerPage
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

// UpdateBooking commits a transitioned booking. The write succeeds only when
// the stored row still carries the version the transition started from.
func (s *Storage) UpdateBooking(_ context.Context, b *models.Booking, prevVersion int64) error {
	const op = "storage.memory.UpdateBooking"

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[b.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	if current.Version != prevVersion {
		return fmt.Errorf("%s: %w", op, response.ErrStaleVersion)
	}
	s.bookings[b.ID] = *b

	return nil
}

// Group sessions

func (s *Storage) CreateGroupSession(_ context.Context, sess *models.GroupSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	s.sessions[sess.ID] = *sess

	return sess.ID, nil
}

func (s *Storage) GetGroupSession(_ context.Context, id string) (*models.GroupSession, error) {
	const op = "storage.memory.GetGroupSession"

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return &sess, nil
}

func (s *Storage) ListGroupSessions(_ context.Context, page, perPage int) ([]models.GroupSession, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.GroupSession
	for _, sess := range s.sessions {
		if sess.Status == models.SessionScheduled {
			all = append(all, sess)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

func (s *Storage) LoadGroupSessions(_ context.Context, trainerID string, window interval.Interval) ([]models.GroupSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.GroupSession
	for _, sess := range s.sessions {
		if sess.TrainerID != trainerID || sess.Status != models.SessionScheduled {
			continue
		}
		if !window.IsZero() && !interval.Overlaps(window, interval.Interval{Start: sess.Start, End: sess.End}) {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Storage) UpdateGroupSession(_ context.Context, sess *models.GroupSession) error {
	const op = "storage.memory.UpdateGroupSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	s.sessions[sess.ID] = *sess

	return nil
}
