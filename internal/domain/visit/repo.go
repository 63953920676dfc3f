package visit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error)
	FindAll(ctx context.Context, f Filter) ([]*Visit, error)
	Count(ctx context.Context, f Filter) (int, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Visit, error)
	AddPrescription(ctx context.Context, id uuid.UUID, p Prescription) (*Visit, error)
	AddTestOrder(ctx context.Context, id uuid.UUID, t TestOrder) (*Visit, error)
}
