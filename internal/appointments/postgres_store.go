package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook-platform/internal/directory"
	"github.com/carebook/carebook-platform/internal/slots"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the ledger in Postgres. Invariant enforcement lives
// in the schema: a partial unique index on (doctor_id, visit_date, slot_time)
// over non-cancelled rows serializes racing reservations.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock for tests.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new upcoming appointment. The slot race resolves at the
// unique index; the loser gets ErrSlotTaken.
func (s *PostgresStore) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments
			(id, doctor_id, patient_id, visit_date, slot_time, fee_cents, status, payment_status, patient_name, symptoms, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		appt.ID,
		appt.DoctorID,
		appt.PatientID,
		appt.Date,
		appt.Time,
		appt.FeeCents,
		appt.Status,
		appt.PaymentStatus,
		appt.PatientName,
		appt.Symptoms,
		appt.Reasons,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

const apptColumns = `id, doctor_id, patient_id, visit_date, slot_time, fee_cents, status, payment_status, patient_name, symptoms, reasons, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.FeeCents,
		&a.Status,
		&a.PaymentStatus,
		&a.PatientName,
		&a.Symptoms,
		&a.Reasons,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get fetches one appointment.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select: %w", err)
	}
	return appt, nil
}

// ListByPatient returns the patient's appointments ordered chronologically.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE patient_id = $1 ORDER BY visit_date, slot_time`
	rows, err := s.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	defer rows.Close()

	out := make([]*Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// ListUpcomingIDs returns ids of the party's upcoming appointments.
func (s *PostgresStore) ListUpcomingIDs(ctx context.Context, party directory.PartyType, partyID uuid.UUID) ([]uuid.UUID, error) {
	var column string
	switch party {
	case directory.PartyDoctor:
		column = "doctor_id"
	case directory.PartyPatient:
		column = "patient_id"
	default:
		return nil, ErrInvalidParty
	}

	query := fmt.Sprintf(`SELECT id FROM appointments WHERE %s = $1 AND status = 'upcoming'`, column)
	rows, err := s.db.Query(ctx, query, partyID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list upcoming: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("appointments: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Cancel applies the shared upcoming → cancelled transition in one statement.
// Zero rows means the appointment is terminal; a follow-up read classifies
// already-cancelled (idempotent no-op) versus completed (invalid).
func (s *PostgresStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET status = 'cancelled', updated_at = now() WHERE id = $1 AND status = 'upcoming'`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: cancel: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	return false, s.classifyTerminal(ctx, id, StatusCancelled)
}

// Complete applies the upcoming → completed transition.
func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET status = 'completed', updated_at = now() WHERE id = $1 AND status = 'upcoming'`, id)
	if err != nil {
		return fmt.Errorf("appointments: complete: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if err := s.classifyTerminal(ctx, id, StatusCompleted); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// classifyTerminal resolves a zero-row transition: missing row, idempotent
// repeat of the same terminal state, or a genuine invalid transition.
func (s *PostgresStore) classifyTerminal(ctx context.Context, id uuid.UUID, want Status) error {
	var current Status
	err := s.db.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("appointments: status lookup: %w", err)
	}
	if current == want {
		return nil
	}
	return ErrInvalidTransition
}

// MarkPaymentPending records that a payment order exists for the appointment.
// The payment_status guard keeps a settled appointment from regressing.
func (s *PostgresStore) MarkPaymentPending(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET payment_status = 'pending', updated_at = now() WHERE id = $1 AND status = 'upcoming' AND payment_status <> 'paid'`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: mark pending: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaid records a settled payment. The status guard keeps paid writes off
// appointments that were cancelled while the callback was in flight.
func (s *PostgresStore) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET payment_status = 'paid', updated_at = now() WHERE id = $1 AND status = 'upcoming'`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: mark paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// BookedSlots reports slot keys held by non-cancelled appointments in [from, to).
func (s *PostgresStore) BookedSlots(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (map[string]struct{}, error) {
	query := `
		SELECT visit_date, slot_time
		FROM appointments
		WHERE doctor_id = $1 AND status <> 'cancelled' AND visit_date >= $2 AND visit_date < $3
	`
	rows, err := s.db.Query(ctx, query, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked slots: %w", err)
	}
	defer rows.Close()

	held := make(map[string]struct{})
	for rows.Next() {
		var (
			date  time.Time
			label string
		)
		if err := rows.Scan(&date, &label); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		held[slots.Key(date.Format(slots.DateFormat), label)] = struct{}{}
	}
	return held, rows.Err()
}
