package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/db"
	"github.com/clinicdesk/frontdesk/pkg/enum"
)

// VisitRecorder applies a visit event to a patient.
type VisitRecorder interface {
	RecordVisitEvent(ctx context.Context, patientID uuid.UUID, at time.Time) error
}

type VisitRecorderFunc func(ctx context.Context, patientID uuid.UUID, at time.Time) error

func (f VisitRecorderFunc) RecordVisitEvent(ctx context.Context, patientID uuid.UUID, at time.Time) error {
	return f(ctx, patientID, at)
}

type Service struct {
	appointments AppointmentRepository
	visits       VisitRecorder
	tx           db.Transactor
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, visits VisitRecorder, tx db.Transactor, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	return &Service{
		appointments: appointments,
		visits:       visits,
		tx:           tx,
		logger:       logger.With().Str("component", "scheduling").Logger(),
		now:          time.Now,
	}
}

func validTime(v string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func validateAppointment(a *Appointment) error {
	a.Type = enum.Normalize(a.Type)
	a.Status = enum.Normalize(a.Status)
	a.Time = strings.TrimSpace(a.Time)

	if a.PatientID == uuid.Nil || a.DoctorID == uuid.Nil {
		return apperr.Validation("patientId and doctorId are required")
	}
	if a.Date.IsZero() {
		return apperr.Validation("date is required")
	}
	if a.Time == "" {
		return apperr.Validation("time is required")
	}
	if !validTime(a.Time) {
		return apperr.Validation("time %q must be HH:MM", a.Time)
	}
	if !validTypes[a.Type] {
		return apperr.Validation("invalid appointment type: %s", a.Type)
	}
	if !validStatuses[a.Status] {
		return apperr.Validation("invalid appointment status: %s", a.Status)
	}
	if a.ConsultationFee < 0 {
		return apperr.Validation("consultationFee must not be negative")
	}
	return nil
}

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.Type == "" {
		a.Type = TypeConsultation
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := validateAppointment(a); err != nil {
		return err
	}
	a.ID = uuid.Nil
	if a.Symptoms == nil {
		a.Symptoms = []string{}
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointment stores a and, when the stored status was anything but
// completed and a is completed, records one visit for the patient. The
// previous status comes from the write itself, so repeated or concurrent
// completions record the visit once.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, a *Appointment) error {
	if a.Type == "" {
		a.Type = TypeConsultation
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := validateAppointment(a); err != nil {
		return err
	}
	a.ID = id

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		prev, err := s.appointments.Update(ctx, a)
		if err != nil {
			return err
		}
		if !CompletionTransition(prev, a.Status) {
			return nil
		}
		if err := s.visits.RecordVisitEvent(ctx, a.PatientID, s.now()); err != nil {
			return fmt.Errorf("record visit for completed appointment %s: %w", a.ID, err)
		}
		s.logger.Info().
			Str("appointment_id", a.ID.String()).
			Str("patient_id", a.PatientID.String()).
			Str("previous_status", prev).
			Msg("appointment completed, visit recorded")
		return nil
	})
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) SearchAppointments(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" {
		f.Status = enum.Normalize(f.Status)
		if !validStatuses[f.Status] {
			return nil, 0, apperr.Validation("unknown appointment status %q", f.Status)
		}
	}
	return s.appointments.Search(ctx, f, limit, offset)
}
