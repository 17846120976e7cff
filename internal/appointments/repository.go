package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoAppointment is returned by lookups that find no matching record.
var ErrNoAppointment = errors.New("appointments: no matching appointment")

// Appointment is one stored booking. At most one record may exist per
// (date, time) pair; the calendar is shared across all patients.
type Appointment struct {
	ID        string
	FirstName string
	LastName  string
	CustID    string
	PatientID string
	Date      string
	Time      string
	Reason    string
}

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository owns all SQL against the appointments table.
type Repository struct {
	pool db
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithDB(pool db) *Repository {
	if pool == nil {
		panic("appointments: db required")
	}
	return &Repository{pool: pool}
}

// ReserveSlot books the slot for appt inside a transaction. It returns false
// without inserting when the slot already holds a record. The unique index on
// (date, time) backstops the in-tx check against concurrent writers.
func (r *Repository) ReserveSlot(ctx context.Context, appt *Appointment) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("appointments: begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE date = $1 AND time = $2`,
		appt.Date, appt.Time,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("appointments: count slot: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, first_name, last_name, cust_id, patient_id, date, time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		appt.ID, appt.FirstName, appt.LastName, appt.CustID, appt.PatientID,
		appt.Date, appt.Time, appt.Reason,
	)
	if err != nil {
		return false, fmt.Errorf("appointments: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("appointments: commit reserve: %w", err)
	}
	return true, nil
}

// FindForCancel locates the record matching the caller's identity and slot.
func (r *Repository) FindForCancel(ctx context.Context, firstName, lastName, patientID, date, tm string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM appointments
		WHERE first_name = $1 AND last_name = $2 AND patient_id = $3 AND date = $4 AND time = $5`,
		firstName, lastName, patientID, date, tm,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoAppointment
	}
	if err != nil {
		return "", fmt.Errorf("appointments: find for cancel: %w", err)
	}
	return id, nil
}

// Delete removes a record by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	return nil
}

// FindByPatientSlot locates the record a reschedule refers to.
func (r *Repository) FindByPatientSlot(ctx context.Context, patientID, date, tm string) (*Appointment, error) {
	appt := Appointment{PatientID: patientID, Date: date, Time: tm}
	err := r.pool.QueryRow(ctx,
		`SELECT id, reason FROM appointments WHERE date = $1 AND time = $2 AND patient_id = $3`,
		date, tm, patientID,
	).Scan(&appt.ID, &appt.Reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoAppointment
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: find by patient slot: %w", err)
	}
	return &appt, nil
}

// MoveSlot reschedules the record to a new slot inside a transaction,
// returning false when another record already holds the target slot.
func (r *Repository) MoveSlot(ctx context.Context, id, date, tm, reason string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("appointments: begin move: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE date = $1 AND time = $2 AND id != $3`,
		date, tm, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("appointments: count target slot: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE appointments SET date = $1, time = $2, reason = $3 WHERE id = $4`,
		date, tm, reason, id,
	)
	if err != nil {
		return false, fmt.Errorf("appointments: update slot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("appointments: commit move: %w", err)
	}
	return true, nil
}

// FetchByPatient returns the patient's appointments, soonest first. Used by
// the debug endpoint.
func (r *Repository) FetchByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, cust_id, patient_id, date, time, reason
		FROM appointments WHERE patient_id = $1 ORDER BY date, time`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: fetch by patient: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.CustID, &a.PatientID, &a.Date, &a.Time, &a.Reason); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
