package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dental_clinic_backend/platform/apperr"
)

// Appointment lifecycle states. Confirmed is the only state an
// appointment can be booked into or edited in; the others are terminal.
const (
	StatusConfirmed = "confirmed"
	StatusAttended  = "attended"
	StatusCanceled  = "canceled"
	StatusAbsented  = "absented"
)

// Appointment is a booked patient visit.
type Appointment struct {
	ID           int64     `db:"id"`
	PatientID    int64     `db:"patient_id"`
	DentistID    int64     `db:"dentist_id"`
	VisitDate    time.Time `db:"visit_date"`
	VisitTime    string    `db:"visit_time"`
	Status       string    `db:"status"`
	Content      string    `db:"content"`
	CancelReason *string   `db:"cancel_reason"`
	IsNewPatient bool      `db:"is_new_patient"`
	VisitType    string    `db:"visit_type"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	CreatedBy    int64     `db:"created_by"`
	UpdatedBy    int64     `db:"updated_by"`
}

// StartsAt combines the visit date and wall-clock time into one instant.
func (a *Appointment) StartsAt() time.Time {
	t, err := time.ParseInLocation("15:04", a.VisitTime, a.VisitDate.Location())
	if err != nil {
		return a.VisitDate
	}
	return time.Date(a.VisitDate.Year(), a.VisitDate.Month(), a.VisitDate.Day(),
		t.Hour(), t.Minute(), 0, 0, a.VisitDate.Location())
}

// Repository handles appointment persistence
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointment repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `id, patient_id, dentist_id, visit_date, visit_time, status, content,
	cancel_reason, is_new_patient, visit_type, created_at, updated_at, created_by, updated_by`

// Create inserts a new appointment and returns its generated id.
func (r *Repository) Create(ctx context.Context, a *Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO appointments
		(patient_id, dentist_id, visit_date, visit_time, status, content,
		 is_new_patient, visit_type, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		a.PatientID, a.DentistID, a.VisitDate, a.VisitTime, a.Status, a.Content,
		a.IsNewPatient, a.VisitType, a.CreatedBy, a.UpdatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperr.Conflict("appointment slot already taken")
		}
		return 0, fmt.Errorf("failed to create appointment: %w", err)
	}

	return id, nil
}

// GetByID retrieves an appointment by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return a, nil
}

// Update rewrites the mutable visit fields of an appointment.
func (r *Repository) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET
		dentist_id = $2, visit_date = $3, visit_time = $4, content = $5,
		is_new_patient = $6, visit_type = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.DentistID, a.VisitDate, a.VisitTime, a.Content,
		a.IsNewPatient, a.VisitType, a.UpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("appointment slot already taken")
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}

	return nil
}

// UpdateStatus moves an appointment into a terminal state. The expected
// current status guards against racing transitions.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to string, reason *string, actorID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET
		status = $3, cancel_reason = $4, updated_by = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to, reason, actorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found or already transitioned")
	}

	return nil
}

// FindConfirmedByPatient returns the patient's open confirmed appointment,
// or nil when the patient has none. A patient can hold at most one.
func (r *Repository) FindConfirmedByPatient(ctx context.Context, patientID int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND status = $2
		ORDER BY visit_date, visit_time
		LIMIT 1`,
		patientID, StatusConfirmed)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check patient appointments: %w", err)
	}

	return a, nil
}

// ListFilter narrows the reception list view. Zero values are skipped.
type ListFilter struct {
	DentistID int64
	PatientID int64
	VisitDate *time.Time
	Status    string
}

// List retrieves appointments matching the filter, earliest visit first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := make([]any, 0, 4)

	if f.DentistID != 0 {
		args = append(args, f.DentistID)
		query += fmt.Sprintf(" AND dentist_id = $%d", len(args))
	}
	if f.PatientID != 0 {
		args = append(args, f.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if f.VisitDate != nil {
		args = append(args, *f.VisitDate)
		query += fmt.Sprintf(" AND visit_date = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY visit_date, visit_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// ListConfirmedBefore retrieves confirmed appointments whose visit starts
// strictly before the cutoff instant. Used by the absence sweep.
func (r *Repository) ListConfirmedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = $1 AND (visit_date + visit_time::time) < $2
		ORDER BY visit_date, visit_time`, StatusConfirmed, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// MarkAttended is an external hook for the clinical record system: it
// flips a confirmed appointment to attended once the visit is recorded.
func (r *Repository) MarkAttended(ctx context.Context, id int64, actorID int64) error {
	return r.UpdateStatus(ctx, id, StatusConfirmed, StatusAttended, nil, actorID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DentistID, &a.VisitDate, &a.VisitTime, &a.Status,
		&a.Content, &a.CancelReason, &a.IsNewPatient, &a.VisitType,
		&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	items := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return items, nil
}
