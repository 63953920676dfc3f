package analytics

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

// Source is the read side of the record store the reports are built from.
type Source interface {
	Patients(ctx context.Context, f identity.PatientFilter) ([]*identity.Patient, error)
	CountPatients(ctx context.Context, f identity.PatientFilter) (int, error)
	Doctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
	Doctors(ctx context.Context, f identity.DoctorFilter) ([]*identity.Doctor, error)
	CountDoctors(ctx context.Context, f identity.DoctorFilter) (int, error)
	Appointments(ctx context.Context, f scheduling.Filter) ([]*scheduling.Appointment, error)
	CountAppointments(ctx context.Context, f scheduling.Filter) (int, error)
	Visits(ctx context.Context, f visit.Filter) ([]*visit.Visit, error)
	CountVisits(ctx context.Context, f visit.Filter) (int, error)
}

// RepoSource reads straight from the domain repositories.
type RepoSource struct {
	PatientRepo     identity.PatientRepository
	DoctorRepo      identity.DoctorRepository
	AppointmentRepo scheduling.AppointmentRepository
	VisitRepo       visit.Repository
}

func (s *RepoSource) Patients(ctx context.Context, f identity.PatientFilter) ([]*identity.Patient, error) {
	return s.PatientRepo.FindAll(ctx, f)
}

func (s *RepoSource) CountPatients(ctx context.Context, f identity.PatientFilter) (int, error) {
	return s.PatientRepo.Count(ctx, f)
}

func (s *RepoSource) Doctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error) {
	return s.DoctorRepo.GetByID(ctx, id)
}

func (s *RepoSource) Doctors(ctx context.Context, f identity.DoctorFilter) ([]*identity.Doctor, error) {
	return s.DoctorRepo.FindAll(ctx, f)
}

func (s *RepoSource) CountDoctors(ctx context.Context, f identity.DoctorFilter) (int, error) {
	return s.DoctorRepo.Count(ctx, f)
}

func (s *RepoSource) Appointments(ctx context.Context, f scheduling.Filter) ([]*scheduling.Appointment, error) {
	return s.AppointmentRepo.FindAll(ctx, f)
}

func (s *RepoSource) CountAppointments(ctx context.Context, f scheduling.Filter) (int, error) {
	return s.AppointmentRepo.Count(ctx, f)
}

func (s *RepoSource) Visits(ctx context.Context, f visit.Filter) ([]*visit.Visit, error) {
	return s.VisitRepo.FindAll(ctx, f)
}

func (s *RepoSource) CountVisits(ctx context.Context, f visit.Filter) (int, error) {
	return s.VisitRepo.Count(ctx, f)
}
