package scheduling

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCompletionTransition(t *testing.T) {
	for _, prev := range Statuses {
		for _, next := range Statuses {
			want := prev != StatusCompleted && next == StatusCompleted
			if got := CompletionTransition(prev, next); got != want {
				t.Errorf("CompletionTransition(%q, %q) = %v, want %v", prev, next, got, want)
			}
		}
	}
	if !CompletionTransition("", StatusCompleted) {
		t.Error("expected a fresh record entering completed to count")
	}
}

func TestAppointment_UnmarshalJSON(t *testing.T) {
	var a Appointment
	body := `{"date":"2024-03-05","time":"10:30","reminderDate":"2024-03-04T09:00:00Z","status":"confirmed"}`
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Date.Year() != 2024 || a.Date.Month() != time.March || a.Date.Day() != 5 {
		t.Errorf("unexpected date %v", a.Date)
	}
	if a.ReminderDate == nil || a.ReminderDate.Day() != 4 {
		t.Errorf("unexpected reminderDate %v", a.ReminderDate)
	}
	if a.Status != StatusConfirmed || a.Time != "10:30" {
		t.Errorf("unexpected appointment %+v", a)
	}
}

func TestAppointment_UnmarshalJSONKeepsAbsentDates(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	a := Appointment{Date: date, Status: StatusScheduled}
	if err := json.Unmarshal([]byte(`{"status":"completed"}`), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Date.Equal(date) {
		t.Errorf("expected date kept, got %v", a.Date)
	}
	if a.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", a.Status)
	}
}

func TestFilter_Matches(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	f := Filter{From: &day, To: &next}

	if !f.matches(&Appointment{Date: day}) {
		t.Error("expected start of window to match")
	}
	if !f.matches(&Appointment{Date: day.Add(23 * time.Hour)}) {
		t.Error("expected late same-day appointment to match")
	}
	if f.matches(&Appointment{Date: next}) {
		t.Error("expected end of window to be excluded")
	}
}
