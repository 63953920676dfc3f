package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/auth"
)

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	now      func() time.Time
}

func NewService(patients PatientRepository, doctors DoctorRepository) *Service {
	return &Service{patients: patients, doctors: doctors, now: time.Now}
}

// -- Patient --

func validatePatient(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Name == "" || p.Email == "" || p.Phone == "" {
		return apperr.Validation("name, email and phone are required")
	}
	if !strings.Contains(p.Email, "@") {
		return apperr.Validation("email %q is not a valid address", p.Email)
	}
	if !validPatientStatuses[p.Status] {
		return apperr.Validation("status must be one of active, inactive, pending")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return apperr.Validation("gender must be one of male, female, other")
	}
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Status == "" {
		p.Status = PatientActive
	}
	if err := validatePatient(p); err != nil {
		return err
	}
	p.ID = uuid.Nil
	p.VisitCount = len(p.Visits)
	if p.TreatedBy == nil {
		p.TreatedBy = []Treatment{}
	}
	if p.Visits == nil {
		p.Visits = []time.Time{}
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// UpdatePatient replaces the profile fields. Visit history and treatments are
// only changed through RecordVisit and AddTreatment.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, p *Patient) error {
	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = existing.Status
	}
	if err := validatePatient(p); err != nil {
		return err
	}
	p.ID = id
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error) {
	if f.Status != "" && !validPatientStatuses[f.Status] {
		return nil, 0, apperr.Validation("unknown patient status %q", f.Status)
	}
	return s.patients.Search(ctx, f, limit, offset)
}

// RecordVisit applies one visit event at the given time, or now when at is
// zero.
func (s *Service) RecordVisit(ctx context.Context, patientID uuid.UUID, at time.Time) (*Patient, error) {
	if at.IsZero() {
		at = s.now()
	}
	p, err := s.patients.RecordVisit(ctx, patientID, at)
	if err != nil {
		return nil, fmt.Errorf("record visit: %w", err)
	}
	return p, nil
}

// RecordVisitEvent is RecordVisit for callers that only need the side effect.
func (s *Service) RecordVisitEvent(ctx context.Context, patientID uuid.UUID, at time.Time) error {
	_, err := s.RecordVisit(ctx, patientID, at)
	return err
}

// AddTreatment appends a treatment by doctorID and records the visit event
// that goes with it. Without a doctor only the visit event is recorded.
func (s *Service) AddTreatment(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID, t Treatment) (*Patient, error) {
	if t.TreatmentDate.IsZero() {
		t.TreatmentDate = s.now()
	}
	if doctorID == nil {
		return s.RecordVisit(ctx, patientID, t.TreatmentDate)
	}

	d, err := s.doctors.GetByID(ctx, *doctorID)
	if err != nil {
		return nil, err
	}
	t.DoctorID = d.ID
	t.DoctorName = d.Name

	p, err := s.patients.AddTreatment(ctx, patientID, t)
	if err != nil {
		return nil, fmt.Errorf("add treatment: %w", err)
	}
	return p, nil
}

func (s *Service) TreatmentHistory(ctx context.Context, patientID uuid.UUID) ([]Treatment, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return p.TreatedBy, nil
}

// PatientsByDoctor lists the patients whose treatment history references
// doctorID.
func (s *Service) PatientsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, 0, err
	}
	return s.patients.Search(ctx, PatientFilter{TreatedBy: &doctorID}, limit, offset)
}

// -- Doctor --

func validateDoctor(d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Specialty = strings.TrimSpace(d.Specialty)
	d.License = strings.TrimSpace(d.License)
	if d.Name == "" || d.Email == "" || d.Phone == "" || d.Specialty == "" || d.License == "" {
		return apperr.Validation("name, email, phone, specialty and license are required")
	}
	if !strings.Contains(d.Email, "@") {
		return apperr.Validation("email %q is not a valid address", d.Email)
	}
	if !validDesignations[d.Designation] {
		return apperr.Validation("designation must be one of Consultant, Senior Consultant, Resident, Fellow")
	}
	if !validDoctorStatuses[d.Status] {
		return apperr.Validation("status must be one of active, inactive, on-leave")
	}
	if d.Experience != nil && *d.Experience < 0 {
		return apperr.Validation("experience must not be negative")
	}
	return nil
}

// CreateDoctor stores d with defaults applied. A non-empty password is hashed
// into the record so the doctor can log in.
func (s *Service) CreateDoctor(ctx context.Context, d *Doctor, password string) error {
	if d.Department == "" {
		d.Department = DepartmentFor(d.Specialty)
	}
	if d.Designation == "" {
		d.Designation = DefaultDesignation
	}
	if d.Status == "" {
		d.Status = DoctorActive
	}
	if d.Availability == nil {
		a := DefaultAvailability()
		d.Availability = &a
	}
	if err := validateDoctor(d); err != nil {
		return err
	}

	d.ID = uuid.Nil
	d.PasswordHash = ""
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return apperr.Validation("%s", err.Error())
		}
		d.PasswordHash = hash
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, d *Doctor) error {
	existing, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.Department == "" || (d.Specialty != existing.Specialty && d.Department == existing.Department) {
		d.Department = DepartmentFor(d.Specialty)
	}
	if d.Designation == "" {
		d.Designation = existing.Designation
	}
	if d.Status == "" {
		d.Status = existing.Status
	}
	if d.Availability == nil {
		d.Availability = existing.Availability
	}
	if err := validateDoctor(d); err != nil {
		return err
	}
	d.ID = id
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) SearchDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	if f.Status != "" && !validDoctorStatuses[f.Status] {
		return nil, 0, apperr.Validation("unknown doctor status %q", f.Status)
	}
	return s.doctors.Search(ctx, f, limit, offset)
}

func (s *Service) SetDoctorPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return s.doctors.SetPasswordHash(ctx, id, hash)
}

// IncrementDoctorVisits bumps the doctor's visit counter.
func (s *Service) IncrementDoctorVisits(ctx context.Context, id uuid.UUID) error {
	if err := s.doctors.IncrementVisits(ctx, id); err != nil {
		return fmt.Errorf("increment doctor visits: %w", err)
	}
	return nil
}

// CheckVisitParticipants returns ErrNotFound unless both the patient and the
// doctor exist.
func (s *Service) CheckVisitParticipants(ctx context.Context, patientID, doctorID uuid.UUID) error {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return fmt.Errorf("patient %s: %w", patientID, err)
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return fmt.Errorf("doctor %s: %w", doctorID, err)
	}
	return nil
}

// Authenticate implements auth.Authenticator for doctor accounts. Only
// active doctors may log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	d, err := s.doctors.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if d.Status != DoctorActive {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(d.PasswordHash, password); err != nil {
		return nil, err
	}
	return &auth.Principal{
		ID:    d.ID.String(),
		Name:  d.Name,
		Email: d.Email,
		Roles: []string{auth.RoleDoctor},
	}, nil
}
