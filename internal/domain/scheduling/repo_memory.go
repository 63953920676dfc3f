package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/memstore"
)

type appointmentRepoMemory struct {
	table *memstore.Table[Appointment]
}

func NewAppointmentRepoMemory() AppointmentRepository {
	return &appointmentRepoMemory{table: memstore.NewTable((*Appointment).Clone)}
}

func (r *appointmentRepoMemory) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if !r.table.Insert(a.ID, a) {
		return apperr.Conflict("appointment", "id")
	}
	return nil
}

func (r *appointmentRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.table.Get(id)
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	return a, nil
}

func (r *appointmentRepoMemory) Update(_ context.Context, a *Appointment) (string, error) {
	before, after, found, err := r.table.Mutate(a.ID, func(cur *Appointment) error {
		createdAt := cur.CreatedAt
		*cur = *a.Clone()
		cur.CreatedAt = createdAt
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return "", apperr.NotFound("appointment")
	}
	if err != nil {
		return "", err
	}
	*a = *after
	return before.Status, nil
}

func (r *appointmentRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	if !r.table.Delete(id) {
		return apperr.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepoMemory) Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	all, err := r.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return memstore.Page(all, limit, offset), len(all), nil
}

func (r *appointmentRepoMemory) FindAll(_ context.Context, f Filter) ([]*Appointment, error) {
	return r.table.Select(f.matches, latestFirst), nil
}

func (r *appointmentRepoMemory) Count(ctx context.Context, f Filter) (int, error) {
	all, err := r.FindAll(ctx, f)
	return len(all), err
}

// latestFirst orders by appointment date, then time slot, newest first.
func latestFirst(a, b *Appointment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if a.Time != b.Time {
		return a.Time > b.Time
	}
	return a.CreatedAt.After(b.CreatedAt)
}
