package service

import (
	"context"
	"fmt"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

// CreateGroupSession schedules a group class. It occupies the trainer's
// calendar exactly like a booking, so it goes through the same
// detect-then-commit sequence under the trainer's scope.
func (s *Service) CreateGroupSession(ctx context.Context, req *api.GroupSessionRequest) (*api.GroupSessionResponse, error) {
	const op = "service.CreateGroupSession"

	candidate, err := parseInterval(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess := &models.GroupSession{
		TrainerID:       req.TrainerID,
		Name:            req.SessionName,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		Start:           candidate.Start,
		End:             candidate.End,
		Status:          models.SessionScheduled,
	}

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

		id, err := s.store.CreateGroupSession(ctx, sess)
		if err != nil {
			return err
		}
		sess.ID = id

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Invalidate(ctx, req.TrainerID)

	return sessionToResponse(sess), nil
}

func (s *Service) ListGroupSessions(ctx context.Context, page, perPage int) ([]*api.GroupSessionResponse, *api.Pagination, error) {
	const op = "service.ListGroupSessions"

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	sessions, total, err := s.store.ListGroupSessions(ctx, page, perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.GroupSessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, sessionToResponse(&sessions[i]))
	}

	pagination := &api.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalCount: total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	return result, pagination, nil
}

// EnrollGroupSession adds a client to a scheduled session. Enrollment runs
// under the trainer's scope so capacity can never be oversubscribed by
// concurrent enrollments.
func (s *Service) EnrollGroupSession(ctx context.Context, sessionID, clientID string) (*api.GroupSessionResponse, error) {
	const op = "service.EnrollGroupSession"

	existing, err := s.store.GetGroupSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var enrolled *models.GroupSession

	err = s.withTrainerScope(ctx, existing.TrainerID, func() error {
		sess, err := s.store.GetGroupSession(ctx, sessionID)
		if err != nil {
			return err
		}

		if sess.Status != models.SessionScheduled {
			return fmt.Errorf("session is %s: %w", sess.Status, response.ErrInvalidTransition)
		}
		if len(sess.Enrolled) >= sess.MaxParticipants {
			return fmt.Errorf("session %s: %w", sessionID, response.ErrSessionFull)
		}
		for _, id := range sess.Enrolled {
			if id == clientID {
				return fmt.Errorf("client %s: %w", clientID, response.ErrAlreadyEnrolled)
			}
		}

		sess.Enrolled = append(sess.Enrolled, clientID)
		enrolled = sess

		return retryInfra(ctx, func() error {
			return s.store.UpdateGroupSession(ctx, sess)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessionToResponse(enrolled), nil
}

func sessionToResponse(sess *models.GroupSession) *api.GroupSessionResponse {
	return &api.GroupSessionResponse{
		ID:                  sess.ID,
		TrainerID:           sess.TrainerID,
		SessionName:         sess.Name,
		Description:         sess.Description,
		MaxParticipants:     sess.MaxParticipants,
		CurrentParticipants: len(sess.Enrolled),
		Start:               sess.Start,
		End:                 sess.End,
		Status:              string(sess.Status),
	}
}
