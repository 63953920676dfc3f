package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/memstore"
)

// -- Patient Repository --

type patientRepoMemory struct {
	table *memstore.Table[Patient]
}

func NewPatientRepoMemory() PatientRepository {
	return &patientRepoMemory{table: memstore.NewTable((*Patient).Clone)}
}

func (r *patientRepoMemory) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if !r.table.Insert(p.ID, p) {
		return apperr.Conflict("patient", "id")
	}
	return nil
}

func (r *patientRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.table.Get(id)
	if !ok {
		return nil, apperr.NotFound("patient")
	}
	return p, nil
}

func (r *patientRepoMemory) Update(_ context.Context, p *Patient) error {
	_, after, found, err := r.table.Mutate(p.ID, func(cur *Patient) error {
		cur.Name = p.Name
		cur.Email = p.Email
		cur.Phone = p.Phone
		cur.DateOfBirth = p.DateOfBirth
		cur.Gender = p.Gender
		cur.Address = p.Address
		cur.EmergencyContact = p.EmergencyContact
		cur.MedicalHistory = p.MedicalHistory
		cur.Status = p.Status
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("patient")
	}
	if err != nil {
		return err
	}
	*p = *after
	return nil
}

func (r *patientRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	if !r.table.Delete(id) {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *patientRepoMemory) Search(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error) {
	all, err := r.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return memstore.Page(all, limit, offset), len(all), nil
}

func (r *patientRepoMemory) FindAll(_ context.Context, f PatientFilter) ([]*Patient, error) {
	return r.table.Select(f.matches, func(a, b *Patient) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (r *patientRepoMemory) Count(ctx context.Context, f PatientFilter) (int, error) {
	all, err := r.FindAll(ctx, f)
	return len(all), err
}

func (r *patientRepoMemory) RecordVisit(_ context.Context, id uuid.UUID, at time.Time) (*Patient, error) {
	_, after, found, err := r.table.Mutate(id, func(cur *Patient) error {
		cur.RecordVisit(at)
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (r *patientRepoMemory) AddTreatment(_ context.Context, id uuid.UUID, t Treatment) (*Patient, error) {
	_, after, found, err := r.table.Mutate(id, func(cur *Patient) error {
		cur.TreatedBy = append(cur.TreatedBy, t)
		cur.RecordVisit(t.TreatmentDate)
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (f PatientFilter) matches(p *Patient) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Gender != "" && (p.Gender == nil || *p.Gender != f.Gender) {
		return false
	}
	if f.TreatedBy != nil && len(p.TreatmentsBy(*f.TreatedBy)) == 0 {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Email), q) &&
			!strings.Contains(p.Phone, q) {
			return false
		}
	}
	return true
}

// -- Doctor Repository --

type doctorRepoMemory struct {
	table *memstore.Table[Doctor]
}

func NewDoctorRepoMemory() DoctorRepository {
	return &doctorRepoMemory{table: memstore.NewTable((*Doctor).Clone)}
}

func (r *doctorRepoMemory) uniqueTaken(d *Doctor) error {
	email := strings.ToLower(d.Email)
	if r.table.Any(func(o *Doctor) bool { return o.ID != d.ID && strings.ToLower(o.Email) == email }) {
		return apperr.Conflict("doctor", "email")
	}
	if r.table.Any(func(o *Doctor) bool { return o.ID != d.ID && o.License == d.License }) {
		return apperr.Conflict("doctor", "license")
	}
	return nil
}

func (r *doctorRepoMemory) Create(_ context.Context, d *Doctor) error {
	if err := r.uniqueTaken(d); err != nil {
		return err
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if !r.table.Insert(d.ID, d) {
		return apperr.Conflict("doctor", "id")
	}
	return nil
}

func (r *doctorRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := r.table.Get(id)
	if !ok {
		return nil, apperr.NotFound("doctor")
	}
	return d, nil
}

func (r *doctorRepoMemory) GetByEmail(_ context.Context, email string) (*Doctor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	found := r.table.Select(func(d *Doctor) bool { return strings.ToLower(d.Email) == email }, nil)
	if len(found) == 0 {
		return nil, apperr.NotFound("doctor")
	}
	return found[0], nil
}

func (r *doctorRepoMemory) Update(_ context.Context, d *Doctor) error {
	if err := r.uniqueTaken(d); err != nil {
		return err
	}
	_, after, found, err := r.table.Mutate(d.ID, func(cur *Doctor) error {
		cur.Name = d.Name
		cur.Email = d.Email
		cur.Phone = d.Phone
		cur.Specialty = d.Specialty
		cur.Qualifications = append([]string(nil), d.Qualifications...)
		cur.License = d.License
		cur.Experience = d.Experience
		cur.Department = d.Department
		cur.Designation = d.Designation
		cur.Availability = d.Availability
		cur.Status = d.Status
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("doctor")
	}
	if err != nil {
		return err
	}
	*d = *after
	return nil
}

func (r *doctorRepoMemory) Delete(_ context.Context, id uuid.UUID) error {
	if !r.table.Delete(id) {
		return apperr.NotFound("doctor")
	}
	return nil
}

func (r *doctorRepoMemory) Search(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	all, err := r.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return memstore.Page(all, limit, offset), len(all), nil
}

func (r *doctorRepoMemory) FindAll(_ context.Context, f DoctorFilter) ([]*Doctor, error) {
	return r.table.Select(f.matches, func(a, b *Doctor) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (r *doctorRepoMemory) Count(ctx context.Context, f DoctorFilter) (int, error) {
	all, err := r.FindAll(ctx, f)
	return len(all), err
}

func (r *doctorRepoMemory) IncrementVisits(_ context.Context, id uuid.UUID) error {
	_, _, found, err := r.table.Mutate(id, func(cur *Doctor) error {
		cur.TotalVisits++
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("doctor")
	}
	if err != nil {
		return err
	}
	return nil
}

func (r *doctorRepoMemory) SetPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	_, _, found, err := r.table.Mutate(id, func(cur *Doctor) error {
		cur.PasswordHash = hash
		cur.UpdatedAt = time.Now()
		return nil
	})
	if !found {
		return apperr.NotFound("doctor")
	}
	if err != nil {
		return err
	}
	return nil
}

func (f DoctorFilter) matches(d *Doctor) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
		return false
	}
	if f.Department != "" && !strings.EqualFold(d.Department, f.Department) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.Email), q) &&
			!strings.Contains(strings.ToLower(d.Specialty), q) {
			return false
		}
	}
	return true
}
