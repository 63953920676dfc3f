package visit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/memstore"
)

type visitRepoMemory struct {
	table *memstore.Table[Visit]
}

func NewRepoMemory() Repository {
	return &visitRepoMemory{table: memstore.NewTable((*Visit).Clone)}
}

func (r *visitRepoMemory) Create(_ context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	if !r.table.Insert(v.ID, v) {
		return apperr.Conflict("visit", "id")
	}
	return nil
}

func (r *visitRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := r.table.Get(id)
	if !ok {
		return nil, apperr.NotFound("visit")
	}
	return v, nil
}

func (r *visitRepoMemory) Update(_ context.Context, v *Visit) error {
	return r.mutate(v.ID, v, func(cur *Visit) error {
		createdAt := cur.CreatedAt
		*cur = *v.Clone()
		cur.CreatedAt = createdAt
		return nil
	})
}

func (r *visitRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	if !r.table.Delete(id) {
		return apperr.NotFound("visit")
	}
	return nil
}

func (r *visitRepoMemory) Search(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	all, err := r.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return memstore.Page(all, limit, offset), len(all), nil
}

func (r *visitRepoMemory) FindAll(_ context.Context, f Filter) ([]*Visit, error) {
	return r.table.Select(f.matches, newestFirst), nil
}

func (r *visitRepoMemory) Count(ctx context.Context, f Filter) (int, error) {
	all, err := r.FindAll(ctx, f)
	return len(all), err
}

func (r *visitRepoMemory) UpdateStatus(_ context.Context, id uuid.UUID, status string) (*Visit, error) {
	var out Visit
	err := r.mutate(id, &out, func(cur *Visit) error {
		cur.Status = status
		return nil
	})
	return &out, err
}

func (r *visitRepoMemory) AddPrescription(_ context.Context, id uuid.UUID, p Prescription) (*Visit, error) {
	var out Visit
	err := r.mutate(id, &out, func(cur *Visit) error {
		cur.Prescriptions = append(cur.Prescriptions, p)
		return nil
	})
	return &out, err
}

func (r *visitRepoMemory) AddTestOrder(_ context.Context, id uuid.UUID, t TestOrder) (*Visit, error) {
	var out Visit
	err := r.mutate(id, &out, func(cur *Visit) error {
		cur.TestsOrdered = append(cur.TestsOrdered, t)
		return nil
	})
	return &out, err
}

// mutate applies fn under the table lock and copies the stored result into out.
// An error from fn leaves the stored visit unchanged.
func (r *visitRepoMemory) mutate(id uuid.UUID, out *Visit, fn func(*Visit) error) error {
	_, after, found, err := r.table.Mutate(id, func(cur *Visit) error {
		if err := fn(cur); err != nil {
			return err
		}
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("visit")
	}
	if err != nil {
		return err
	}
	*out = *after
	return nil
}

func newestFirst(a, b *Visit) bool {
	if !a.VisitDate.Equal(b.VisitDate) {
		return a.VisitDate.After(b.VisitDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
