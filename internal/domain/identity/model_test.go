package identity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDepartmentFor(t *testing.T) {
	cases := map[string]string{
		"Cardiology":  "Cardiology",
		" Neurology ": "Neurology",
		"Podiatry":    DefaultDepartment,
		"":            DefaultDepartment,
	}
	for specialty, want := range cases {
		if got := DepartmentFor(specialty); got != want {
			t.Errorf("DepartmentFor(%q) = %q, want %q", specialty, got, want)
		}
	}
}

func TestPatient_RecordVisit(t *testing.T) {
	p := &Patient{}
	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	p.RecordVisit(jan)
	if p.VisitCount != 1 || !p.FirstVisit.Equal(jan) || !p.LastVisit.Equal(jan) {
		t.Fatalf("unexpected state after first visit: %+v", p)
	}

	p.RecordVisit(mar)
	p.RecordVisit(feb)
	if p.VisitCount != 3 {
		t.Errorf("expected visitCount 3, got %d", p.VisitCount)
	}
	if len(p.Visits) != p.VisitCount {
		t.Errorf("expected %d visit entries, got %d", p.VisitCount, len(p.Visits))
	}
	if !p.FirstVisit.Equal(jan) {
		t.Errorf("expected firstVisit %v, got %v", jan, p.FirstVisit)
	}
	if !p.LastVisit.Equal(mar) {
		t.Errorf("expected lastVisit %v, got %v", mar, p.LastVisit)
	}
}

func TestPatient_TreatmentsBy(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	p := &Patient{TreatedBy: []Treatment{{DoctorID: a}, {DoctorID: b}, {DoctorID: a}}}
	if got := len(p.TreatmentsBy(a)); got != 2 {
		t.Errorf("expected 2 treatments by a, got %d", got)
	}
	if got := len(p.TreatmentsBy(uuid.New())); got != 0 {
		t.Errorf("expected none for unknown doctor, got %d", got)
	}
}

func TestPatient_CloneDoesNotAlias(t *testing.T) {
	p := &Patient{Visits: []time.Time{time.Now()}, TreatedBy: []Treatment{{DoctorName: "Dr. A"}}}
	c := p.Clone()
	c.Visits[0] = time.Time{}
	c.TreatedBy[0].DoctorName = "Dr. B"
	if p.Visits[0].IsZero() || p.TreatedBy[0].DoctorName != "Dr. A" {
		t.Error("clone shares slices with the original")
	}
}

func TestPatient_UnmarshalJSONDates(t *testing.T) {
	var p Patient
	body := `{"name":"Jane","email":"jane@example.com","phone":"555","dateOfBirth":"1990-05-15","lastVisit":"2024-01-15T10:30:00Z"}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Jane" {
		t.Errorf("expected name Jane, got %q", p.Name)
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Year() != 1990 || p.DateOfBirth.Month() != time.May {
		t.Errorf("unexpected dateOfBirth %v", p.DateOfBirth)
	}
	if p.LastVisit == nil || p.LastVisit.Day() != 15 {
		t.Errorf("unexpected lastVisit %v", p.LastVisit)
	}
	if p.FirstVisit != nil {
		t.Errorf("expected nil firstVisit, got %v", p.FirstVisit)
	}
}

func TestDoctor_PasswordHashNotSerialized(t *testing.T) {
	d := Doctor{Name: "Dr. A", PasswordHash: "secret-hash"}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m["passwordHash"]; ok {
		t.Error("password hash leaked into JSON")
	}
}

func TestDefaultAvailability(t *testing.T) {
	a := DefaultAvailability()
	if !a.Monday.Available || !a.Friday.Available {
		t.Error("expected weekdays available")
	}
	if a.Saturday.Available || a.Sunday.Available {
		t.Error("expected weekends unavailable")
	}
}
