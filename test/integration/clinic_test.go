//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/frontdesk/internal/domain/analytics"
	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
	"github.com/clinicdesk/frontdesk/internal/platform/sandbox"
)

func TestAppointmentCompletionRecordsVisitOnce(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	stores := pgStores()
	identitySvc := identity.NewService(stores.Patients, stores.Doctors)
	svc := scheduling.NewService(stores.Appointments, identitySvc, tx(), nopLogger())

	p := createPatient(t, ctx, stores.Patients, "Sarah Johnson", "sarah@example.com")
	d := createDoctor(t, ctx, stores.Doctors, "Dr. Brown", "brown@hospital.com", "MD2")

	a := &scheduling.Appointment{
		PatientID: p.ID, DoctorID: d.ID, Date: day(2024, 5, 1), Time: "09:30",
	}
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	id := a.ID

	for i := 0; i < 2; i++ {
		a.Status = scheduling.StatusCompleted
		if err := svc.UpdateAppointment(ctx, id, a); err != nil {
			t.Fatalf("UpdateAppointment #%d: %v", i, err)
		}
	}

	got, err := stores.Patients.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VisitCount != 1 {
		t.Errorf("expected one recorded visit, got %d", got.VisitCount)
	}
}

func TestVisitLifecycle(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	stores := pgStores()
	identitySvc := identity.NewService(stores.Patients, stores.Doctors)
	svc := visit.NewService(stores.Visits, identitySvc, tx(), nopLogger())

	p := createPatient(t, ctx, stores.Patients, "John Doe", "john@example.com")
	d := createDoctor(t, ctx, stores.Doctors, "Dr. Wilson", "wilson@hospital.com", "MD1")

	v := &visit.Visit{
		PatientID:       p.ID,
		DoctorID:        d.ID,
		VisitDate:       day(2024, 4, 2),
		ConsultationFee: 150,
		TestFees:        40,
	}
	if err := svc.CreateVisit(ctx, v); err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}
	if v.TotalAmount != 190 {
		t.Errorf("expected total 190, got %v", v.TotalAmount)
	}

	if _, err := svc.AddPrescription(ctx, v.ID, visit.Prescription{MedicineName: "Metoprolol"}); err != nil {
		t.Fatalf("AddPrescription: %v", err)
	}
	withTest, err := svc.AddTestOrder(ctx, v.ID, visit.TestOrder{TestName: "ECG"})
	if err != nil {
		t.Fatalf("AddTestOrder: %v", err)
	}
	if len(withTest.Prescriptions) != 1 || len(withTest.TestsOrdered) != 1 {
		t.Errorf("expected one prescription and one test, got %d and %d",
			len(withTest.Prescriptions), len(withTest.TestsOrdered))
	}
	if withTest.TestsOrdered[0].Status != visit.TestOrdered {
		t.Errorf("expected default test status %q, got %q", visit.TestOrdered, withTest.TestsOrdered[0].Status)
	}

	done, err := svc.UpdateStatus(ctx, v.ID, visit.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if done.Status != visit.StatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	patient, _ := stores.Patients.GetByID(ctx, p.ID)
	if patient.VisitCount != 1 || patient.LastVisit == nil || !patient.LastVisit.Equal(day(2024, 4, 2)) {
		t.Errorf("unexpected patient counters: count=%d last=%v", patient.VisitCount, patient.LastVisit)
	}
	doctor, _ := stores.Doctors.GetByID(ctx, d.ID)
	if doctor.TotalVisits != 1 {
		t.Errorf("expected doctor totalVisits 1, got %d", doctor.TotalVisits)
	}

	items, total, err := svc.SearchVisits(ctx, visit.Filter{DoctorID: &d.ID}, 10, 0)
	if err != nil {
		t.Fatalf("SearchVisits: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("expected one visit for doctor, got total=%d", total)
	}
}

func TestVisitCreateRollsBackOnUnknownDoctor(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	stores := pgStores()
	identitySvc := identity.NewService(stores.Patients, stores.Doctors)
	svc := visit.NewService(stores.Visits, identitySvc, tx(), nopLogger())

	p := createPatient(t, ctx, stores.Patients, "John Doe", "john@example.com")
	err := svc.CreateVisit(ctx, &visit.Visit{PatientID: p.ID, DoctorID: p.ID, VisitDate: day(2024, 4, 2)})
	if err == nil {
		t.Fatal("expected error for unknown doctor")
	}

	got, _ := stores.Patients.GetByID(ctx, p.ID)
	if got.VisitCount != 0 {
		t.Errorf("expected patient visit to be rolled back, got count %d", got.VisitCount)
	}
}

func TestAnalyticsOverSeededPostgres(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	stores := pgStores()

	now := time.Now().UTC()
	ds := sandbox.Build(now)
	if _, err := sandbox.Seed(ctx, stores, ds); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if _, err := sandbox.Seed(ctx, stores, ds); !errors.Is(err, sandbox.ErrAlreadySeeded) {
		t.Errorf("expected ErrAlreadySeeded, got %v", err)
	}

	svc := analytics.NewService(&analytics.RepoSource{
		PatientRepo:     stores.Patients,
		DoctorRepo:      stores.Doctors,
		AppointmentRepo: stores.Appointments,
		VisitRepo:       stores.Visits,
	}, analytics.Options{Location: time.UTC}, nopLogger())

	o, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalPatients != len(ds.Patients) || o.TotalDoctors != len(ds.Doctors) || o.TotalVisits != len(ds.Visits) {
		t.Errorf("unexpected overview: %+v", o)
	}

	var revenue float64
	for _, v := range ds.Visits {
		revenue += v.TotalAmount
	}
	fin, err := svc.FinancialReport(ctx, nil)
	if err != nil {
		t.Fatalf("FinancialReport: %v", err)
	}
	if fin.TotalRevenue != revenue {
		t.Errorf("expected revenue %v, got %v", revenue, fin.TotalRevenue)
	}
}
