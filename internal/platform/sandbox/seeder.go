// Package sandbox provides the built-in clinic dataset used by the memory
// store and by "frontdesk seed". Dates are laid out relative to a reference
// time so dashboards always have recent activity to show.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

// ErrAlreadySeeded is returned by Seed when the target store already holds doctors.
var ErrAlreadySeeded = errors.New("store already contains data")

// Dataset is a consistent set of records: patient visit counters and
// treatment histories, and doctor totals, agree with the visits in it.
type Dataset struct {
	Patients     []*identity.Patient
	Doctors      []*identity.Doctor
	Appointments []*scheduling.Appointment
	Visits       []*visit.Visit
}

// Stores are the repositories a dataset is written into.
type Stores struct {
	Patients     identity.PatientRepository
	Doctors      identity.DoctorRepository
	Appointments scheduling.AppointmentRepository
	Visits       visit.Repository
}

// SeedResult summarizes the output of a seed operation.
type SeedResult struct {
	Patients     int           `json:"patients"`
	Doctors      int           `json:"doctors"`
	Appointments int           `json:"appointments"`
	Visits       int           `json:"visits"`
	Duration     time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type patientDef struct {
	name, email, phone, dob, gender, address, contact, history string
}

type doctorDef struct {
	name, email, phone, specialty, license, designation string
	experience                                          int
	qualifications                                      []string
}

type visitDef struct {
	patient, doctor  int
	daysAgo          int
	clock            string
	visitType        string
	diagnosis        string
	treatment        string
	consultation     float64
	tests            float64
	payment          string
	status           string
	prescription     string
	testName         string
}

type appointmentDef struct {
	patient, doctor int
	dayOffset       int
	clock           string
	apptType        string
	status          string
	notes           string
	fee             float64
}

var patientDefs = []patientDef{
	{"John Doe", "john.doe@email.com", "555-0101", "1990-05-15", "male",
		"123 Main Street, City, State 12345", "Jane Doe - 555-0102", "No known allergies"},
	{"Sarah Johnson", "sarah.johnson@email.com", "555-0103", "1985-08-22", "female",
		"456 Oak Avenue, City, State 12345", "Mike Johnson - 555-0104", "Asthma, controlled with medication"},
	{"Robert Chen", "robert.chen@email.com", "555-0105", "1978-12-03", "male",
		"789 Pine Road, City, State 12345", "Lisa Chen - 555-0106", "Hypertension, diabetes type 2"},
}

var doctorDefs = []doctorDef{
	{"Dr. Sarah Wilson", "sarah.wilson@hospital.com", "555-0201", "Cardiology", "MD123456",
		"Senior Consultant", 8, []string{"MBBS", "MD Cardiology"}},
	{"Dr. Michael Brown", "michael.brown@hospital.com", "555-0202", "Neurology", "MD789012",
		"Consultant", 12, []string{"MBBS", "DM Neurology"}},
	{"Dr. Emily Davis", "emily.davis@hospital.com", "555-0203", "Pediatrics", "MD345678",
		"Resident", 6, []string{"MBBS"}},
}

var visitDefs = []visitDef{
	{0, 0, 150, "09:00", visit.TypeFirstVisit, "Palpitations", "ECG and beta blocker trial", 150, 80,
		visit.PaymentPaid, visit.StatusCompleted, "Metoprolol", "ECG"},
	{0, 1, 60, "10:30", visit.TypeFollowUp, "Tension headache", "Lifestyle advice", 120, 0,
		visit.PaymentPaid, visit.StatusCompleted, "Ibuprofen", ""},
	{0, 0, 5, "09:00", visit.TypeFollowUp, "Stable arrhythmia", "Continue medication", 100, 0,
		visit.PaymentPending, visit.StatusCompleted, "", ""},
	{1, 1, 20, "14:30", visit.TypeFirstVisit, "Migraine", "Triptan as needed", 120, 60,
		visit.PaymentPartial, visit.StatusCompleted, "Sumatriptan", "MRI Brain"},
	{2, 0, 200, "11:00", visit.TypeFirstVisit, "Hypertension", "ACE inhibitor", 150, 120,
		visit.PaymentPaid, visit.StatusCompleted, "Lisinopril", "Lipid Panel"},
	{2, 0, 120, "11:00", visit.TypeFollowUp, "Hypertension", "Dose adjustment", 100, 0,
		visit.PaymentPaid, visit.StatusCompleted, "", ""},
	{2, 2, 90, "16:00", visit.TypeEmergency, "Hypoglycemia", "Glucose and observation", 200, 40,
		visit.PaymentPaid, visit.StatusCompleted, "", "Blood Glucose"},
	{2, 0, 45, "11:00", visit.TypeRoutineCheckup, "Hypertension, controlled", "Continue medication", 100, 0,
		visit.PaymentPaid, visit.StatusCompleted, "", ""},
	{2, 1, 0, "12:00", visit.TypeFollowUp, "", "", 120, 0,
		visit.PaymentPending, visit.StatusInProgress, "", ""},
}

var appointmentDefs = []appointmentDef{
	{0, 0, -5, "09:00", scheduling.TypeConsultation, scheduling.StatusCompleted, "Regular checkup", 100},
	{1, 1, -20, "14:30", scheduling.TypeFollowUp, scheduling.StatusCompleted, "Follow-up appointment", 120},
	{2, 0, -45, "11:00", scheduling.TypeConsultation, scheduling.StatusCompleted, "Initial consultation", 100},
	{0, 1, 2, "10:00", scheduling.TypeConsultation, scheduling.StatusConfirmed, "Follow-up consultation", 120},
	{1, 0, 7, "15:00", scheduling.TypeConsultation, scheduling.StatusCancelled, "Patient cancelled due to emergency", 150},
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

// Build lays the dataset out around now, in now's location. IDs are derived
// from the records' natural keys, so repeated builds agree on them.
func Build(now time.Time) *Dataset {
	ds := &Dataset{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, def := range doctorDefs {
		avail := identity.DefaultAvailability()
		exp := def.experience
		ds.Doctors = append(ds.Doctors, &identity.Doctor{
			ID:             stableID("doctor", def.email),
			Name:           def.name,
			Email:          def.email,
			Phone:          def.phone,
			Specialty:      def.specialty,
			Qualifications: append([]string(nil), def.qualifications...),
			License:        def.license,
			Experience:     &exp,
			Department:     identity.DepartmentFor(def.specialty),
			Designation:    def.designation,
			Availability:   &avail,
			Status:         identity.DoctorActive,
			CreatedAt:      today.AddDate(-1, 0, 0),
		})
	}

	for i, def := range patientDefs {
		dob, _ := time.ParseInLocation("2006-01-02", def.dob, now.Location())
		ds.Patients = append(ds.Patients, &identity.Patient{
			ID:               stableID("patient", def.email),
			Name:             def.name,
			Email:            def.email,
			Phone:            def.phone,
			DateOfBirth:      &dob,
			Gender:           strPtr(def.gender),
			Address:          strPtr(def.address),
			EmergencyContact: strPtr(def.contact),
			MedicalHistory:   strPtr(def.history),
			TreatedBy:        []identity.Treatment{},
			Visits:           []time.Time{},
			Status:           identity.PatientActive,
			CreatedAt:        today.AddDate(0, 0, -210+i),
		})
	}

	for i, def := range visitDefs {
		p, d := ds.Patients[def.patient], ds.Doctors[def.doctor]
		at := atClock(today.AddDate(0, 0, -def.daysAgo), def.clock)
		v := &visit.Visit{
			ID:              stableID("visit", fmt.Sprintf("%d", i)),
			PatientID:       p.ID,
			DoctorID:        d.ID,
			VisitDate:       at,
			VisitType:       def.visitType,
			AppointmentTime: strPtr(def.clock),
			Vitals:          &visit.Vitals{BloodPressure: "120/80", Temperature: "98.6", HeartRate: "72"},
			Diagnosis:       strPtr(def.diagnosis),
			Treatment:       strPtr(def.treatment),
			ConsultationFee: def.consultation,
			TestFees:        def.tests,
			PaymentStatus:   def.payment,
			Status:          def.status,
			CreatedAt:       at,
		}
		if def.prescription != "" {
			v.Prescriptions = append(v.Prescriptions, visit.Prescription{
				MedicineName: def.prescription, Dosage: "1 tablet", Frequency: "daily", Duration: "30 days",
			})
		}
		if def.testName != "" {
			v.TestsOrdered = append(v.TestsOrdered, visit.TestOrder{
				TestName: def.testName, TestDate: &at, Status: visit.TestCompleted,
			})
		}
		v.Normalize()
		ds.Visits = append(ds.Visits, v)

		recordVisit(p, at)
		d.TotalVisits++
		if v.Status == visit.StatusCompleted && v.Diagnosis != nil {
			p.TreatedBy = append(p.TreatedBy, identity.Treatment{
				DoctorID:      d.ID,
				DoctorName:    d.Name,
				TreatmentDate: at,
				Diagnosis:     v.Diagnosis,
				Treatment:     v.Treatment,
			})
		}
	}

	for _, d := range ds.Doctors {
		seen := map[uuid.UUID]bool{}
		for _, v := range ds.Visits {
			if v.DoctorID == d.ID {
				seen[v.PatientID] = true
			}
		}
		d.TotalPatients = len(seen)
	}

	for i, def := range appointmentDefs {
		p, d := ds.Patients[def.patient], ds.Doctors[def.doctor]
		date := today.AddDate(0, 0, def.dayOffset)
		ds.Appointments = append(ds.Appointments, &scheduling.Appointment{
			ID:              stableID("appointment", fmt.Sprintf("%d", i)),
			PatientID:       p.ID,
			DoctorID:        d.ID,
			Date:            date,
			Time:            def.clock,
			Type:            def.apptType,
			Symptoms:        []string{},
			Status:          def.status,
			Notes:           strPtr(def.notes),
			ConsultationFee: def.fee,
			CreatedAt:       date.AddDate(0, 0, -7),
		})
	}

	return ds
}

func recordVisit(p *identity.Patient, at time.Time) {
	p.VisitCount++
	p.Visits = append(p.Visits, at)
	sort.Slice(p.Visits, func(i, j int) bool { return p.Visits[i].Before(p.Visits[j]) })
	if p.FirstVisit == nil || at.Before(*p.FirstVisit) {
		t := at
		p.FirstVisit = &t
	}
	if p.LastVisit == nil || at.After(*p.LastVisit) {
		t := at
		p.LastVisit = &t
	}
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

// Seed writes ds into stores. It refuses to run against a store that already
// holds doctors, since the dataset's emails and licenses are unique keys.
func Seed(ctx context.Context, stores Stores, ds *Dataset) (*SeedResult, error) {
	start := time.Now()

	n, err := stores.Doctors.Count(ctx, identity.DoctorFilter{})
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	if n > 0 {
		return nil, ErrAlreadySeeded
	}

	result := &SeedResult{}
	for _, d := range ds.Doctors {
		if err := stores.Doctors.Create(ctx, d.Clone()); err != nil {
			return result, fmt.Errorf("seed doctor %s: %w", d.Email, err)
		}
		result.Doctors++
	}
	for _, p := range ds.Patients {
		if err := stores.Patients.Create(ctx, p.Clone()); err != nil {
			return result, fmt.Errorf("seed patient %s: %w", p.Email, err)
		}
		result.Patients++
	}
	for _, a := range ds.Appointments {
		if err := stores.Appointments.Create(ctx, a.Clone()); err != nil {
			return result, fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
		result.Appointments++
	}
	for _, v := range ds.Visits {
		if err := stores.Visits.Create(ctx, v.Clone()); err != nil {
			return result, fmt.Errorf("seed visit %s: %w", v.ID, err)
		}
		result.Visits++
	}

	result.Duration = time.Since(start)
	return result, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var namespace = uuid.MustParse("6f1c2b0e-6a43-4f0b-9d5e-3f2a8c1d7e90")

func stableID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key))
}

func atClock(day time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
