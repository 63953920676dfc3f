package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

var refNow = time.Date(2024, 5, 15, 14, 30, 0, 0, time.UTC)

func memoryStores() Stores {
	return Stores{
		Patients:     identity.NewPatientRepoMemory(),
		Doctors:      identity.NewDoctorRepoMemory(),
		Appointments: scheduling.NewAppointmentRepoMemory(),
		Visits:       visit.NewRepoMemory(),
	}
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuild_Counts(t *testing.T) {
	ds := Build(refNow)
	if len(ds.Patients) != 3 {
		t.Errorf("expected 3 patients, got %d", len(ds.Patients))
	}
	if len(ds.Doctors) != 3 {
		t.Errorf("expected 3 doctors, got %d", len(ds.Doctors))
	}
	if len(ds.Appointments) != 5 {
		t.Errorf("expected 5 appointments, got %d", len(ds.Appointments))
	}
	if len(ds.Visits) != len(visitDefs) {
		t.Errorf("expected %d visits, got %d", len(visitDefs), len(ds.Visits))
	}
}

func TestBuild_StableIDs(t *testing.T) {
	a := Build(refNow)
	b := Build(refNow.AddDate(0, 1, 0))
	for i := range a.Patients {
		if a.Patients[i].ID != b.Patients[i].ID {
			t.Errorf("patient %d: IDs differ between builds", i)
		}
	}
	if a.Doctors[0].ID == uuid.Nil {
		t.Error("expected non-nil doctor ID")
	}
}

func TestBuild_PatientCountersMatchVisits(t *testing.T) {
	ds := Build(refNow)
	for _, p := range ds.Patients {
		var n int
		var last time.Time
		for _, v := range ds.Visits {
			if v.PatientID != p.ID {
				continue
			}
			n++
			if v.VisitDate.After(last) {
				last = v.VisitDate
			}
		}
		if p.VisitCount != n || len(p.Visits) != n {
			t.Errorf("%s: visitCount=%d visits=%d, expected %d", p.Name, p.VisitCount, len(p.Visits), n)
		}
		if p.LastVisit == nil || !p.LastVisit.Equal(last) {
			t.Errorf("%s: lastVisit=%v, expected %v", p.Name, p.LastVisit, last)
		}
		if p.FirstVisit == nil || p.FirstVisit.After(*p.LastVisit) {
			t.Errorf("%s: firstVisit must not be after lastVisit", p.Name)
		}
	}
}

func TestBuild_DoctorTotalsMatchVisits(t *testing.T) {
	ds := Build(refNow)
	for _, d := range ds.Doctors {
		var n int
		for _, v := range ds.Visits {
			if v.DoctorID == d.ID {
				n++
			}
		}
		if d.TotalVisits != n {
			t.Errorf("%s: totalVisits=%d, expected %d", d.Name, d.TotalVisits, n)
		}
		if d.Department != d.Specialty {
			t.Errorf("%s: expected department %q, got %q", d.Name, d.Specialty, d.Department)
		}
	}
}

func TestBuild_VisitTotals(t *testing.T) {
	for _, v := range Build(refNow).Visits {
		if v.TotalAmount != v.ConsultationFee+v.TestFees {
			t.Errorf("visit %s: total %v != %v + %v", v.ID, v.TotalAmount, v.ConsultationFee, v.TestFees)
		}
	}
}

func TestBuild_HasVisitToday(t *testing.T) {
	ds := Build(refNow)
	start := time.Date(refNow.Year(), refNow.Month(), refNow.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	var found bool
	for _, v := range ds.Visits {
		if !v.VisitDate.Before(start) && v.VisitDate.Before(end) {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one visit today")
	}
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

func TestSeed_Memory(t *testing.T) {
	ctx := context.Background()
	stores := memoryStores()
	ds := Build(refNow)

	result, err := Seed(ctx, stores, ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Patients != 3 || result.Doctors != 3 || result.Appointments != 5 || result.Visits != len(ds.Visits) {
		t.Errorf("unexpected result: %+v", result)
	}

	n, err := stores.Visits.Count(ctx, visit.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(ds.Visits) {
		t.Errorf("expected %d stored visits, got %d", len(ds.Visits), n)
	}

	p, err := stores.Patients.GetByID(ctx, ds.Patients[2].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.VisitCount != ds.Patients[2].VisitCount {
		t.Errorf("expected visitCount %d, got %d", ds.Patients[2].VisitCount, p.VisitCount)
	}
}

func TestSeed_DoesNotAliasDataset(t *testing.T) {
	stores := memoryStores()
	ds := Build(refNow)
	if _, err := Seed(context.Background(), stores, ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ds.Patients[0].Name = "changed"

	p, _ := stores.Patients.GetByID(context.Background(), ds.Patients[0].ID)
	if p.Name == "changed" {
		t.Error("stored patient shares memory with the dataset")
	}
}

func TestSeed_RefusesNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	stores := memoryStores()
	if _, err := Seed(ctx, stores, Build(refNow)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := Seed(ctx, stores, Build(refNow))
	if !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("expected ErrAlreadySeeded, got %v", err)
	}
}
