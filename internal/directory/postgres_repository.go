package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores profiles in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// GetDoctor fetches a doctor profile.
func (r *PostgresRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	query := `
		SELECT id, name, email, specialization, fee_cents, approved, active, working_hours, created_at
		FROM doctors
		WHERE id = $1
	`
	var (
		d        Doctor
		hoursRaw []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Specialization,
		&d.FeeCents,
		&d.Approved,
		&d.Active,
		&hoursRaw,
		&d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("directory: select doctor: %w", err)
	}
	if len(hoursRaw) > 0 {
		if err := json.Unmarshal(hoursRaw, &d.WorkingHours); err != nil {
			return nil, fmt.Errorf("directory: decode working hours: %w", err)
		}
	}
	return &d, nil
}

// GetPatient fetches a patient profile.
func (r *PostgresRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `
		SELECT id, name, email, active, created_at
		FROM patients
		WHERE id = $1
	`
	var p Patient
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Active,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory: select patient: %w", err)
	}
	return &p, nil
}

// SetDoctorActive flips the doctor's suspension flag.
func (r *PostgresRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE doctors SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("directory: update doctor active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// SetPatientActive flips the patient's suspension flag.
func (r *PostgresRepository) SetPatientActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE patients SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("directory: update patient active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
