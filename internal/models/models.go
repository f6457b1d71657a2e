package models

import "time"

type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// IsTerminal reports whether no further transition may leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCancelled, BookingCompleted, BookingNoShow:
		return true
	}
	return false
}

// IsActive reports whether the booking occupies the trainer's calendar.
func (s BookingStatus) IsActive() bool {
	return s == BookingRequested || s == BookingConfirmed
}

type Booking struct {
	ID                 string        `db:"id"`
	TrainerID          string        `db:"trainer_id"`
	ClientID           string        `db:"client_id"`
	Start              time.Time     `db:"start_at"`
	End                time.Time     `db:"end_at"`
	Status             BookingStatus `db:"status"`
	Notes              string        `db:"notes"`
	CancellationReason *string       `db:"cancellation_reason"`
	CancelledAt        *time.Time    `db:"cancelled_at"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
	Version            int64         `db:"version"`
}

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceWeekly Recurrence = "weekly"
)

// AvailabilitySlot is a window during which a trainer is bookable.
// Weekly slots project Weekday + StartClock/EndClock onto every week between
// ValidFrom and ValidUntil; one-off slots use ValidFrom's date directly.
type AvailabilitySlot struct {
	ID         string     `db:"id"`
	TrainerID  string     `db:"trainer_id"`
	Weekday    int        `db:"day_of_week"` // 0 = Sunday
	StartClock string     `db:"start_time"`  // "15:04"
	EndClock   string     `db:"end_time"`
	Recurrence Recurrence `db:"recurrence"`
	ValidFrom  time.Time  `db:"valid_from"`
	ValidUntil *time.Time `db:"valid_until"` // nil = open-ended
	Active     bool       `db:"is_active"`
	CreatedAt  time.Time  `db:"created_at"`
}

// BookingFilters narrows and paginates booking listings.
type BookingFilters struct {
	TrainerID *string
	ClientID  *string
	Status    *BookingStatus
	Page      int
	PerPage   int
}

type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

type GroupSession struct {
	ID              string        `db:"id"`
	TrainerID       string        `db:"trainer_id"`
	Name            string        `db:"session_name"`
	Description     string        `db:"description"`
	MaxParticipants int           `db:"max_participants"`
	Enrolled        []string      `db:"enrolled_clients"`
	Start           time.Time     `db:"start_at"`
	End             time.Time     `db:"end_at"`
	Status          SessionStatus `db:"status"`
	CreatedAt       time.Time     `db:"created_at"`
}
