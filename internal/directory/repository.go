package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrDoctorNotFound is returned when no doctor exists for the id.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrPatientNotFound is returned when no patient exists for the id.
	ErrPatientNotFound = errors.New("patient not found")
)

// Repository provides read access to profiles for the booking core and the
// suspend/reinstate mutations used by admin flows.
type Repository interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPatientActive(ctx context.Context, id uuid.UUID, active bool) error
}

// InMemoryRepository keeps profiles in process memory. Used in tests and when
// no database is configured.
type InMemoryRepository struct {
	mu       sync.RWMutex
	doctors  map[uuid.UUID]*Doctor
	patients map[uuid.UUID]*Patient
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
	}
}

// PutDoctor inserts or replaces a doctor profile.
func (r *InMemoryRepository) PutDoctor(d *Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *d
	r.doctors[d.ID] = &copied
}

// PutPatient inserts or replaces a patient profile.
func (r *InMemoryRepository) PutPatient(p *Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.patients[p.ID] = &copied
}

// GetDoctor returns a copy of the stored doctor.
func (r *InMemoryRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

// GetPatient returns a copy of the stored patient.
func (r *InMemoryRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *p
	return &copied, nil
}

// SetDoctorActive flips the doctor's suspension flag.
func (r *InMemoryRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Active = active
	return nil
}

// SetPatientActive flips the patient's suspension flag.
func (r *InMemoryRepository) SetPatientActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.Active = active
	return nil
}
