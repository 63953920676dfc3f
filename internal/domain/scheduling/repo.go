package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Update replaces the stored appointment and returns the status it held
	// immediately before, read in the same atomic step as the write.
	Update(ctx context.Context, a *Appointment) (previousStatus string, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	FindAll(ctx context.Context, f Filter) ([]*Appointment, error)
	Count(ctx context.Context, f Filter) (int, error)
}
