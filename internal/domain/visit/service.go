package visit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/db"
	"github.com/clinicdesk/frontdesk/pkg/dateparse"
	"github.com/clinicdesk/frontdesk/pkg/enum"
)

// Tally keeps the patient and doctor counters in step with new visits.
// CheckVisitParticipants must fail when either record is missing, so no
// counter moves for a visit that cannot be stored.
type Tally interface {
	CheckVisitParticipants(ctx context.Context, patientID, doctorID uuid.UUID) error
	RecordVisitEvent(ctx context.Context, patientID uuid.UUID, at time.Time) error
	IncrementDoctorVisits(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	visits Repository
	tally  Tally
	tx     db.Transactor
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(visits Repository, tally Tally, tx db.Transactor, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	return &Service{
		visits: visits,
		tally:  tally,
		tx:     tx,
		logger: logger.With().Str("component", "visit").Logger(),
		now:    time.Now,
	}
}

func applyDefaults(v *Visit) {
	if v.VisitType == "" {
		v.VisitType = TypeFirstVisit
	}
	if v.PaymentStatus == "" {
		v.PaymentStatus = PaymentPending
	}
	if v.Status == "" {
		v.Status = StatusInProgress
	}
	for i := range v.TestsOrdered {
		if v.TestsOrdered[i].Status == "" {
			v.TestsOrdered[i].Status = TestOrdered
		}
	}
}

func validateTest(t *TestOrder) error {
	t.Status = enum.Normalize(t.Status)
	if strings.TrimSpace(t.TestName) == "" {
		return apperr.Validation("testName is required")
	}
	if !validTestStatuses[t.Status] {
		return apperr.Validation("invalid test status: %s", t.Status)
	}
	return nil
}

func validatePrescription(p *Prescription) error {
	if strings.TrimSpace(p.MedicineName) == "" {
		return apperr.Validation("medicineName is required")
	}
	return nil
}

func validateVisit(v *Visit) error {
	v.VisitType = enum.Normalize(v.VisitType)
	v.PaymentStatus = enum.Normalize(v.PaymentStatus)
	v.Status = enum.Normalize(v.Status)

	if v.PatientID == uuid.Nil || v.DoctorID == uuid.Nil {
		return apperr.Validation("patientId and doctorId are required")
	}
	if !validTypes[v.VisitType] {
		return apperr.Validation("invalid visit type: %s", v.VisitType)
	}
	if !validPaymentStatuses[v.PaymentStatus] {
		return apperr.Validation("invalid payment status: %s", v.PaymentStatus)
	}
	if !validStatuses[v.Status] {
		return apperr.Validation("invalid visit status: %s", v.Status)
	}
	if v.ConsultationFee < 0 || v.TestFees < 0 {
		return apperr.Validation("fees must not be negative")
	}
	for i := range v.Prescriptions {
		if err := validatePrescription(&v.Prescriptions[i]); err != nil {
			return err
		}
	}
	for i := range v.TestsOrdered {
		if err := validateTest(&v.TestsOrdered[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateVisit stores v and records the visit against its patient and doctor.
// visitDate defaults to now and is also the time of the patient's visit event.
func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	applyDefaults(v)
	if err := validateVisit(v); err != nil {
		return err
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = s.now()
	}
	v.ID = uuid.Nil
	v.Normalize()

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tally.CheckVisitParticipants(ctx, v.PatientID, v.DoctorID); err != nil {
			return err
		}
		if err := s.tally.IncrementDoctorVisits(ctx, v.DoctorID); err != nil {
			return fmt.Errorf("count doctor visit: %w", err)
		}
		if err := s.tally.RecordVisitEvent(ctx, v.PatientID, v.VisitDate); err != nil {
			return fmt.Errorf("record patient visit: %w", err)
		}
		if err := s.visits.Create(ctx, v); err != nil {
			return err
		}
		s.logger.Info().
			Str("visit_id", v.ID.String()).
			Str("patient_id", v.PatientID.String()).
			Str("doctor_id", v.DoctorID.String()).
			Msg("visit created")
		return nil
	})
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

// UpdateVisit replaces the stored visit. The total is recomputed from the fees.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, v *Visit) error {
	applyDefaults(v)
	if err := validateVisit(v); err != nil {
		return err
	}
	if v.VisitDate.IsZero() {
		return apperr.Validation("visitDate is required")
	}
	v.ID = id
	v.Normalize()
	return s.visits.Update(ctx, v)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.visits.Delete(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Visit, error) {
	status = enum.Normalize(status)
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid visit status: %s", status)
	}
	return s.visits.UpdateStatus(ctx, id, status)
}

func (s *Service) AddPrescription(ctx context.Context, id uuid.UUID, p Prescription) (*Visit, error) {
	if err := validatePrescription(&p); err != nil {
		return nil, err
	}
	return s.visits.AddPrescription(ctx, id, p)
}

func (s *Service) AddTestOrder(ctx context.Context, id uuid.UUID, t TestOrder) (*Visit, error) {
	if t.Status == "" {
		t.Status = TestOrdered
	}
	if err := validateTest(&t); err != nil {
		return nil, err
	}
	return s.visits.AddTestOrder(ctx, id, t)
}

func (s *Service) SearchVisits(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	if f.Status != "" {
		f.Status = enum.Normalize(f.Status)
		if !validStatuses[f.Status] {
			return nil, 0, apperr.Validation("unknown visit status %q", f.Status)
		}
	}
	return s.visits.Search(ctx, f, limit, offset)
}

// TodaysVisits lists visits dated today in the server's zone, earliest
// appointment time first. Visits without a time sort last.
func (s *Service) TodaysVisits(ctx context.Context) ([]*Visit, error) {
	start := dateparse.StartOfDay(s.now())
	end := start.AddDate(0, 0, 1)
	visits, err := s.visits.FindAll(ctx, Filter{From: &start, To: &end})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(visits, func(i, j int) bool {
		a, b := visits[i].AppointmentTime, visits[j].AppointmentTime
		if a == nil || b == nil {
			return a != nil
		}
		return *a < *b
	})
	return visits, nil
}
