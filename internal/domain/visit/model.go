package visit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/pkg/dateparse"
)

const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	TypeFirstVisit     = "first-visit"
	TypeFollowUp       = "follow-up"
	TypeEmergency      = "emergency"
	TypeRoutineCheckup = "routine-checkup"

	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentPartial = "partial"

	TestOrdered    = "ordered"
	TestInProgress = "in-progress"
	TestCompleted  = "completed"
	TestCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusInProgress: true, StatusCompleted: true, StatusCancelled: true,
}

var validTypes = map[string]bool{
	TypeFirstVisit: true, TypeFollowUp: true, TypeEmergency: true, TypeRoutineCheckup: true,
}

var validPaymentStatuses = map[string]bool{
	PaymentPending: true, PaymentPaid: true, PaymentPartial: true,
}

var validTestStatuses = map[string]bool{
	TestOrdered: true, TestInProgress: true, TestCompleted: true, TestCancelled: true,
}

// PaymentStatuses lists every payment status in reporting order.
var PaymentStatuses = []string{PaymentPaid, PaymentPending, PaymentPartial}

type Vitals struct {
	BloodPressure string `json:"bloodPressure,omitempty" bson:"bloodPressure,omitempty"`
	Temperature   string `json:"temperature,omitempty" bson:"temperature,omitempty"`
	HeartRate     string `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	Weight        string `json:"weight,omitempty" bson:"weight,omitempty"`
	Height        string `json:"height,omitempty" bson:"height,omitempty"`
}

type Prescription struct {
	MedicineName string  `json:"medicineName" bson:"medicineName"`
	Dosage       string  `json:"dosage,omitempty" bson:"dosage,omitempty"`
	Frequency    string  `json:"frequency,omitempty" bson:"frequency,omitempty"`
	Duration     string  `json:"duration,omitempty" bson:"duration,omitempty"`
	Instructions *string `json:"instructions,omitempty" bson:"instructions,omitempty"`
}

type TestOrder struct {
	TestName string     `json:"testName" bson:"testName"`
	TestDate *time.Time `json:"testDate,omitempty" bson:"testDate,omitempty"`
	Results  *string    `json:"results,omitempty" bson:"results,omitempty"`
	Status   string     `json:"status" bson:"status"`
}

func (t *TestOrder) UnmarshalJSON(data []byte) error {
	type alias TestOrder
	aux := struct {
		*alias
		TestDate *dateparse.Time `json:"testDate"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.TestDate != nil {
		t.TestDate = aux.TestDate.Ptr()
	}
	return nil
}

// Visit maps to the visits table / collection.
type Visit struct {
	ID              uuid.UUID      `db:"id" json:"id" bson:"_id"`
	PatientID       uuid.UUID      `db:"patient_id" json:"patientId" bson:"patientId"`
	DoctorID        uuid.UUID      `db:"doctor_id" json:"doctorId" bson:"doctorId"`
	VisitDate       time.Time      `db:"visit_date" json:"visitDate" bson:"visitDate"`
	VisitType       string         `db:"visit_type" json:"visitType" bson:"visitType"`
	AppointmentTime *string        `db:"appointment_time" json:"appointmentTime,omitempty" bson:"appointmentTime,omitempty"`
	Vitals          *Vitals        `db:"vitals" json:"vitals,omitempty" bson:"vitals,omitempty"`
	Symptoms        []string       `db:"symptoms" json:"symptoms" bson:"symptoms"`
	Diagnosis       *string        `db:"diagnosis" json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Treatment       *string        `db:"treatment" json:"treatment,omitempty" bson:"treatment,omitempty"`
	Prescriptions   []Prescription `db:"prescriptions" json:"prescriptions" bson:"prescriptions"`
	TestsOrdered    []TestOrder    `db:"tests_ordered" json:"testsOrdered" bson:"testsOrdered"`
	FollowUpDate    *time.Time     `db:"follow_up_date" json:"followUpDate,omitempty" bson:"followUpDate,omitempty"`
	FollowUpNotes   *string        `db:"follow_up_notes" json:"followUpNotes,omitempty" bson:"followUpNotes,omitempty"`
	ConsultationFee float64        `db:"consultation_fee" json:"consultationFee" bson:"consultationFee"`
	TestFees        float64        `db:"test_fees" json:"testFees" bson:"testFees"`
	TotalAmount     float64        `db:"total_amount" json:"totalAmount" bson:"totalAmount"`
	PaymentStatus   string         `db:"payment_status" json:"paymentStatus" bson:"paymentStatus"`
	DoctorNotes     *string        `db:"doctor_notes" json:"doctorNotes,omitempty" bson:"doctorNotes,omitempty"`
	ReceptionNotes  *string        `db:"reception_notes" json:"receptionNotes,omitempty" bson:"receptionNotes,omitempty"`
	Status          string         `db:"status" json:"status" bson:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// UnmarshalJSON accepts calendar dates for visitDate and followUpDate.
// Absent keys keep their current value.
func (v *Visit) UnmarshalJSON(data []byte) error {
	type alias Visit
	aux := struct {
		*alias
		VisitDate    *dateparse.Time `json:"visitDate"`
		FollowUpDate *dateparse.Time `json:"followUpDate"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.VisitDate != nil {
		v.VisitDate = aux.VisitDate.Time
	}
	if aux.FollowUpDate != nil {
		v.FollowUpDate = aux.FollowUpDate.Ptr()
	}
	return nil
}

// Normalize recomputes the derived total and fills empty collections. It runs
// before every write.
func (v *Visit) Normalize() {
	v.TotalAmount = v.ConsultationFee + v.TestFees
	if v.Symptoms == nil {
		v.Symptoms = []string{}
	}
	if v.Prescriptions == nil {
		v.Prescriptions = []Prescription{}
	}
	if v.TestsOrdered == nil {
		v.TestsOrdered = []TestOrder{}
	}
}

func (v *Visit) Clone() *Visit {
	c := *v
	c.Symptoms = append([]string(nil), v.Symptoms...)
	c.Prescriptions = append([]Prescription(nil), v.Prescriptions...)
	c.TestsOrdered = append([]TestOrder(nil), v.TestsOrdered...)
	if v.Vitals != nil {
		vt := *v.Vitals
		c.Vitals = &vt
	}
	return &c
}

// Filter narrows visit queries. From/To bound visitDate as [From, To).
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

func (f Filter) matches(v *Visit) bool {
	if f.PatientID != nil && v.PatientID != *f.PatientID {
		return false
	}
	if f.DoctorID != nil && v.DoctorID != *f.DoctorID {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.From != nil && v.VisitDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !v.VisitDate.Before(*f.To) {
		return false
	}
	return true
}
