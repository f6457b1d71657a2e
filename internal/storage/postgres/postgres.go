package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fitsync-schedule/internal/interval"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{db: db}

	if err := s.bootstrap(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *Storage) bootstrap(ctx context.Context) error {
	const op = "storage.postgres.bootstrap"

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS availability (
			id UUID PRIMARY KEY,
			trainer_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL CHECK (day_of_week >= 0 AND day_of_week <= 6),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			recurrence TEXT NOT NULL DEFAULT 'weekly',
			valid_from TIMESTAMPTZ NOT NULL,
			valid_until TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_availability_trainer ON availability(trainer_id);

		CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			trainer_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			cancellation_reason TEXT,
			cancelled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_bookings_trainer ON bookings(trainer_id);
		CREATE INDEX IF NOT EXISTS idx_bookings_client ON bookings(client_id);
		CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);

		CREATE TABLE IF NOT EXISTS group_sessions (
			id UUID PRIMARY KEY,
			trainer_id TEXT NOT NULL,
			session_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			max_participants INTEGER NOT NULL,
			enrolled_clients TEXT[] NOT NULL DEFAULT '{}',
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'SCHEDULED',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_group_sessions_trainer ON group_sessions(trainer_id);
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### availability ####

func (s *Storage) CreateAvailabilitySlot(ctx context.Context, slot *models.AvailabilitySlot) (string, error) {
	const op = "storage.postgres.CreateAvailabilitySlot"

	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO availability (id, trainer_id, day_of_week, start_time, end_time, recurrence, valid_from, valid_until, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		slot.ID, slot.TrainerID, slot.Weekday, slot.StartClock, slot.EndClock,
		string(slot.Recurrence), slot.ValidFrom, slot.ValidUntil, slot.Active, slot.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return slot.ID, nil
}

func (s *Storage) GetAvailabilitySlot(ctx context.Context, id string) (*models.AvailabilitySlot, error) {
	const op = "storage.postgres.GetAvailabilitySlot"

	row := s.db.QueryRowContext(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, recurrence, valid_from, valid_until, is_active, created_at
		FROM availability WHERE id = $1`, id)

	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slot, nil
}

// LoadAvailability returns the trainer's active slots that can contribute
// coverage inside the window. Open-ended weekly slots always qualify; the
// index bounds their expansion by the window.
func (s *Storage) LoadAvailability(ctx context.Context, trainerID string, window interval.Interval) ([]models.AvailabilitySlot, error) {
	const op = "storage.postgres.LoadAvailability"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, recurrence, valid_from, valid_until, is_active, created_at
		FROM availability
		WHERE trainer_id = $1 AND is_active = true
		  AND (valid_until IS NULL OR valid_until > $2)
		  AND valid_from < $3
		ORDER BY id`,
		trainerID, window.Start, window.End,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectSlots(rows, op)
}

func (s *Storage) ListTrainerAvailability(ctx context.Context, trainerID string) ([]models.AvailabilitySlot, error) {
	const op = "storage.postgres.ListTrainerAvailability"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, recurrence, valid_from, valid_until, is_active, created_at
		FROM availability
		WHERE trainer_id = $1 AND is_active = true
		ORDER BY day_of_week, start_time`,
		trainerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectSlots(rows, op)
}

func (s *Storage) DeactivateAvailabilitySlot(ctx context.Context, id string) error {
	const op = "storage.postgres.DeactivateAvailabilitySlot"

	res, err := s.db.ExecContext(ctx, `UPDATE availability SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	var recurrence string

	err := row.Scan(
		&slot.ID, &slot.TrainerID, &slot.Weekday, &slot.StartClock, &slot.EndClock,
		&recurrence, &slot.ValidFrom, &slot.ValidUntil, &slot.Active, &slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	slot.Recurrence = models.Recurrence(recurrence)

	return &slot, nil
}

func collectSlots(rows *sql.Rows, op string) ([]models.AvailabilitySlot, error) {
	var out []models.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// #### bookings ####

const bookingColumns = `id, trainer_id, client_id, start_at, end_at, status, notes, cancellation_reason, cancelled_at, created_at, updated_at, version`

func (s *Storage) CreateBooking(ctx context.Context, b *models.Booking) error {
	const op = "storage.postgres.CreateBooking"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.TrainerID, b.ClientID, b.Start, b.End, string(b.Status), b.Notes,
		b.CancellationReason, b.CancelledAt, b.CreatedAt, b.UpdatedAt, b.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Storage) LoadBookings(ctx context.Context, trainerID string, window interval.Interval) ([]models.Booking, error) {
	const op = "storage.postgres.LoadBookings"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trainer_id = $1 AND start_at < $2 AND end_at > $3
		ORDER BY start_at, id`,
		trainerID, window.End, window.Start,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) ListBookings(ctx context.Context, filters models.BookingFilters) ([]models.Booking, int, error) {
	const op = "storage.postgres.ListBookings"

	where := "TRUE"
	args := []any{}

	if filters.TrainerID != nil {
		args = append(args, *filters.TrainerID)
		where += fmt.Sprintf(" AND trainer_id = $%d", len(args))
	}
	if filters.ClientID != nil {
		args = append(args, *filters.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	args = append(args, filters.PerPage, (filters.Page-1)*filters.PerPage)
	query := fmt.Sprintf(`
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE %s
		ORDER BY start_at DESC, id
		LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return out, total, nil
}

// UpdateBooking writes a transitioned booking. The optimistic version check
// is part of the statement: the row must still be at the version the
// transition started from, or the write affects nothing and the caller gets
// ErrStaleVersion.
func (s *Storage) UpdateBooking(ctx context.Context, b *models.Booking, prevVersion int64) error {
	const op = "storage.postgres.UpdateBooking"

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET start_at = $1, end_at = $2, status = $3, notes = $4,
		    cancellation_reason = $5, cancelled_at = $6, updated_at = $7, version = $8
		WHERE id = $9 AND version = $10`,
		b.Start, b.End, string(b.Status), b.Notes,
		b.CancellationReason, b.CancelledAt, b.UpdatedAt, b.Version,
		b.ID, prevVersion,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, b.ID).Scan(&exists); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, response.ErrStaleVersion)
	}

	return nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var status string

	err := row.Scan(
		&b.ID, &b.TrainerID, &b.ClientID, &b.Start, &b.End, &status, &b.Notes,
		&b.CancellationReason, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)

	return &b, nil
}

// #### group sessions ####

const sessionColumns = `id, trainer_id, session_name, description, max_participants, enrolled_clients, start_at, end_at, status, created_at`

func (s *Storage) CreateGroupSession(ctx context.Context, sess *models.GroupSession) (string, error) {
	const op = "storage.postgres.CreateGroupSession"

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sess.ID, sess.TrainerID, sess.Name, sess.Description, sess.MaxParticipants,
		pq.Array(sess.Enrolled), sess.Start, sess.End, string(sess.Status), sess.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sess.ID, nil
}

func (s *Storage) GetGroupSession(ctx context.Context, id string) (*models.GroupSession, error) {
	const op = "storage.postgres.GetGroupSession"

	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM group_sessions WHERE id = $1`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

func (s *Storage) ListGroupSessions(ctx context.Context, page, perPage int) ([]models.GroupSession, int, error) {
	const op = "storage.postgres.ListGroupSessions"

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_sessions WHERE status = $1`, string(models.SessionScheduled),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM group_sessions
		WHERE status = $1
		ORDER BY start_at, id
		LIMIT $2 OFFSET $3`,
		string(models.SessionScheduled), perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.GroupSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return out, total, nil
}

func (s *Storage) LoadGroupSessions(ctx context.Context, trainerID string, window interval.Interval) ([]models.GroupSession, error) {
	const op = "storage.postgres.LoadGroupSessions"

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM group_sessions
		WHERE trainer_id = $1 AND status = $2 AND start_at < $3 AND end_at > $4
		ORDER BY start_at, id`,
		trainerID, string(models.SessionScheduled), window.End, window.Start,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.GroupSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) UpdateGroupSession(ctx context.Context, sess *models.GroupSession) error {
	const op = "storage.postgres.UpdateGroupSession"

	res, err := s.db.ExecContext(ctx, `
		UPDATE group_sessions
		SET session_name = $1, description = $2, max_participants = $3,
		    enrolled_clients = $4, start_at = $5, end_at = $6, status = $7
		WHERE id = $8`,
		sess.Name, sess.Description, sess.MaxParticipants,
		pq.Array(sess.Enrolled), sess.Start, sess.End, string(sess.Status),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func scanSession(row rowScanner) (*models.GroupSession, error) {
	var sess models.GroupSession
	var status string

	err := row.Scan(
		&sess.ID, &sess.TrainerID, &sess.Name, &sess.Description, &sess.MaxParticipants,
		pq.Array(&sess.Enrolled), &sess.Start, &sess.End, &status, &sess.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionStatus(status)

	return &sess, nil
}
