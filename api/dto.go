package api

import "time"

// Intervals travel as RFC3339 timestamps in requests and responses.

type AvailabilityRequest struct {
	TrainerID  string  `json:"trainer_id" validate:"required"`
	Weekday    int     `json:"day_of_week" validate:"min=0,max=6"`
	StartTime  string  `json:"start_time" validate:"required"`
	EndTime    string  `json:"end_time" validate:"required"`
	Recurrence string  `json:"recurrence" validate:"omitempty,oneof=none weekly"`
	ValidFrom  string  `json:"valid_from" validate:"required"`
	ValidUntil *string `json:"valid_until,omitempty"`
}

type AvailabilityResponse struct {
	ID         string     `json:"id"`
	TrainerID  string     `json:"trainer_id"`
	Weekday    int        `json:"day_of_week"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	Recurrence string     `json:"recurrence"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Active     bool       `json:"is_active"`
}

type BookingRequest struct {
	TrainerID string `json:"trainer_id" validate:"required"`
	ClientID  string `json:"client_id" validate:"required"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
	Notes     string `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID                 string     `json:"id"`
	TrainerID          string     `json:"trainer_id"`
	ClientID           string     `json:"client_id"`
	Start              time.Time  `json:"start"`
	End                time.Time  `json:"end"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int64      `json:"version"`
}

type BookingRescheduleRequest struct {
	BookingID       string `json:"booking_id" validate:"required"`
	Start           string `json:"start" validate:"required"`
	End             string `json:"end" validate:"required"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type BookingCancelRequest struct {
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	ExpectedVersion    *int64  `json:"expected_version,omitempty"`
}

type BookingTransitionRequest struct {
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type IntervalPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type FreeIntervalsResponse struct {
	TrainerID string            `json:"trainer_id"`
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Free      []IntervalPayload `json:"free"`
}

type GroupSessionRequest struct {
	TrainerID       string `json:"trainer_id" validate:"required"`
	SessionName     string `json:"session_name" validate:"required"`
	Description     string `json:"description,omitempty"`
	MaxParticipants int    `json:"max_participants" validate:"required,min=1"`
	Start           string `json:"start" validate:"required"`
	End             string `json:"end" validate:"required"`
}

type GroupSessionResponse struct {
	ID                  string    `json:"id"`
	TrainerID           string    `json:"trainer_id"`
	SessionName         string    `json:"session_name"`
	Description         string    `json:"description,omitempty"`
	MaxParticipants     int       `json:"max_participants"`
	CurrentParticipants int       `json:"current_participants"`
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	Status              string    `json:"status"`
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
