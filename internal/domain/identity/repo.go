package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error)
	FindAll(ctx context.Context, f PatientFilter) ([]*Patient, error)
	Count(ctx context.Context, f PatientFilter) (int, error)

	// RecordVisit atomically applies one visit event and returns the result.
	RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) (*Patient, error)
	// AddTreatment atomically appends t and records a visit event at
	// t.TreatmentDate.
	AddTreatment(ctx context.Context, id uuid.UUID, t Treatment) (*Patient, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error)
	FindAll(ctx context.Context, f DoctorFilter) ([]*Doctor, error)
	Count(ctx context.Context, f DoctorFilter) (int, error)

	IncrementVisits(ctx context.Context, id uuid.UUID) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
