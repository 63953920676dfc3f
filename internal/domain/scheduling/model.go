package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/pkg/dateparse"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"

	TypeConsultation   = "consultation"
	TypeFollowUp       = "follow-up"
	TypeEmergency      = "emergency"
	TypeRoutineCheckup = "routine-checkup"
	TypeSurgery        = "surgery"
)

// Statuses lists every appointment status. Any status may follow any other.
var Statuses = []string{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCompleted: true,
	StatusCancelled: true, StatusNoShow: true,
}

var validTypes = map[string]bool{
	TypeConsultation: true, TypeFollowUp: true, TypeEmergency: true,
	TypeRoutineCheckup: true, TypeSurgery: true,
}

// CompletionTransition reports whether moving from prev to next is the first
// entry into completed, the one update that counts as a patient visit.
func CompletionTransition(prev, next string) bool {
	return prev != StatusCompleted && next == StatusCompleted
}

// Appointment maps to the appointments table / collection.
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id" bson:"_id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patientId" bson:"patientId"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctorId" bson:"doctorId"`
	Date            time.Time  `db:"date" json:"date" bson:"date"`
	Time            string     `db:"time" json:"time" bson:"time"`
	Type            string     `db:"type" json:"type" bson:"type"`
	Reason          *string    `db:"reason" json:"reason,omitempty" bson:"reason,omitempty"`
	Symptoms        []string   `db:"symptoms" json:"symptoms" bson:"symptoms"`
	Status          string     `db:"status" json:"status" bson:"status"`
	ReminderSent    bool       `db:"reminder_sent" json:"reminderSent" bson:"reminderSent"`
	ReminderDate    *time.Time `db:"reminder_date" json:"reminderDate,omitempty" bson:"reminderDate,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty" bson:"notes,omitempty"`
	PatientNotes    *string    `db:"patient_notes" json:"patientNotes,omitempty" bson:"patientNotes,omitempty"`
	ReceptionNotes  *string    `db:"reception_notes" json:"receptionNotes,omitempty" bson:"receptionNotes,omitempty"`
	ConsultationFee float64    `db:"consultation_fee" json:"consultationFee" bson:"consultationFee"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// UnmarshalJSON accepts calendar dates for date and reminderDate. Absent keys
// keep their current value.
func (a *Appointment) UnmarshalJSON(data []byte) error {
	type alias Appointment
	aux := struct {
		*alias
		Date         *dateparse.Time `json:"date"`
		ReminderDate *dateparse.Time `json:"reminderDate"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date != nil {
		a.Date = aux.Date.Time
	}
	if aux.ReminderDate != nil {
		a.ReminderDate = aux.ReminderDate.Ptr()
	}
	return nil
}

func (a *Appointment) Clone() *Appointment {
	c := *a
	c.Symptoms = append([]string(nil), a.Symptoms...)
	return &c
}

// Filter narrows appointment queries. From/To bound the appointment date as
// the half-open range [From, To).
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

func (f Filter) matches(a *Appointment) bool {
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.From != nil && a.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.Date.Before(*f.To) {
		return false
	}
	return true
}
