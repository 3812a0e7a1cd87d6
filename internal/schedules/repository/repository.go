package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dental_clinic_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schedule statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Schedule represents a dentist's registered availability for one date and
// shift. Rows are never hard-deleted; superseded rows are retired by
// clearing is_active.
type Schedule struct {
	ID        int64     `db:"id"`
	DentistID int64     `db:"dentist_id"`
	WorkDate  time.Time `db:"work_date"`
	Shift     string    `db:"shift"`
	Status    string    `db:"status"`
	WeekStart time.Time `db:"week_start"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	CreatedBy int64     `db:"created_by"`
	UpdatedBy int64     `db:"updated_by"`
}

const scheduleNotFoundMsg = "schedule not found"

const scheduleColumns = `id, dentist_id, work_date, shift, status, week_start,
	is_active, created_at, updated_at, created_by, updated_by`

// Repository provides database operations for schedules
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new schedules repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new schedule and assigns its id. The partial unique index
// on (dentist_id, work_date, shift) for active pending/approved rows is the
// storage backstop for the no-duplicate-slot invariant; a violation surfaces
// as Conflict.
func (r *Repository) Create(ctx context.Context, s *Schedule) error {
	query := `
		INSERT INTO schedules (
			dentist_id, work_date, shift, status, week_start, is_active,
			created_at, updated_at, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		s.DentistID, s.WorkDate, s.Shift, s.Status, s.WeekStart, s.IsActive,
		s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy,
	).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("an active schedule already exists for this slot")
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	return nil
}

// GetByID retrieves a schedule by its ID, including retired rows.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	s, err := scanSchedule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(scheduleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return s, nil
}

// Update rewrites the mutable fields of an existing schedule.
func (r *Repository) Update(ctx context.Context, s *Schedule) error {
	query := `
		UPDATE schedules SET
			work_date = $2,
			shift = $3,
			status = $4,
			week_start = $5,
			is_active = $6,
			updated_at = $7,
			updated_by = $8
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		s.ID, s.WorkDate, s.Shift, s.Status, s.WeekStart, s.IsActive,
		s.UpdatedAt, s.UpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("an active schedule already exists for this slot")
		}
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(scheduleNotFoundMsg)
	}

	return nil
}

// UpdateStatusAll transitions every given schedule to the new status inside
// one transaction, so a decision batch is applied all-or-nothing.
func (r *Repository) UpdateStatusAll(ctx context.Context, ids []int64, status string, decidedBy int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin decision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for _, id := range ids {
		result, err := tx.Exec(ctx, `
			UPDATE schedules SET status = $2, updated_at = $3, updated_by = $4
			WHERE id = $1`, id, status, now, decidedBy)
		if err != nil {
			return fmt.Errorf("failed to update schedule %d status: %w", id, err)
		}
		if result.RowsAffected() == 0 {
			return apperr.NotFound(scheduleNotFoundMsg)
		}
	}

	return tx.Commit(ctx)
}

// SoftDelete retires a schedule by clearing its active flag.
func (r *Repository) SoftDelete(ctx context.Context, id int64, by int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE schedules SET is_active = FALSE, updated_at = $2, updated_by = $3
		WHERE id = $1`, id, time.Now(), by)
	if err != nil {
		return fmt.Errorf("failed to soft delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(scheduleNotFoundMsg)
	}

	return nil
}

// FindActiveConflict returns the active schedule occupying the same
// (dentist, date, shift) slot, excluding the row being edited. Returns nil
// when the slot is free. Rejected rows are included: the caller decides
// whether a conflict is reclaimable.
func (r *Repository) FindActiveConflict(ctx context.Context, dentistID int64, workDate time.Time, shift string, excludeID int64) (*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE dentist_id = $1 AND work_date = $2 AND shift = $3
			AND is_active AND id != $4
		ORDER BY created_at DESC LIMIT 1`

	s, err := scanSchedule(r.pool.QueryRow(ctx, query, dentistID, workDate, shift, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find schedule conflict: %w", err)
	}

	return s, nil
}

// ListByIDs retrieves the schedules for the given ids, in id order.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]Schedule, error) {
	if len(ids) == 0 {
		return []Schedule{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+scheduleColumns+`
		FROM schedules WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules by ids: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ListWeek retrieves a dentist's active schedules for one calendar week.
func (r *Repository) ListWeek(ctx context.Context, dentistID int64, weekStart time.Time) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scheduleColumns+`
		FROM schedules
		WHERE dentist_id = $1 AND week_start = $2 AND is_active
		ORDER BY work_date, shift`, dentistID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list week schedules: %w", err)
	}
	defer rows.Close()

	return collectSchedules(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*Schedule, error) {
	var s Schedule
	err := row.Scan(
		&s.ID, &s.DentistID, &s.WorkDate, &s.Shift, &s.Status, &s.WeekStart,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSchedules(rows pgx.Rows) ([]Schedule, error) {
	items := make([]Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return items, nil
}
