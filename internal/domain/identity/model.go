package identity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/pkg/dateparse"
)

const (
	PatientActive   = "active"
	PatientInactive = "inactive"
	PatientPending  = "pending"

	DoctorActive   = "active"
	DoctorInactive = "inactive"
	DoctorOnLeave  = "on-leave"

	DefaultDepartment  = "General Medicine"
	DefaultDesignation = "Consultant"
)

var validPatientStatuses = map[string]bool{
	PatientActive: true, PatientInactive: true, PatientPending: true,
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

var validDoctorStatuses = map[string]bool{
	DoctorActive: true, DoctorInactive: true, DoctorOnLeave: true,
}

var validDesignations = map[string]bool{
	"Consultant": true, "Senior Consultant": true, "Resident": true, "Fellow": true,
}

// specialtyDepartments maps the specialties that own a department of the
// same name. Anything else lands in General Medicine.
var specialtyDepartments = map[string]string{
	"Cardiology":         "Cardiology",
	"Neurology":          "Neurology",
	"Pediatrics":         "Pediatrics",
	"Endocrinology":      "Endocrinology",
	"Orthopedics":        "Orthopedics",
	"Dermatology":        "Dermatology",
	"Psychiatry":         "Psychiatry",
	"Oncology":           "Oncology",
	"General Medicine":   "General Medicine",
	"Emergency Medicine": "Emergency Medicine",
}

// DepartmentFor derives a doctor's department from the specialty.
func DepartmentFor(specialty string) string {
	if d, ok := specialtyDepartments[strings.TrimSpace(specialty)]; ok {
		return d
	}
	return DefaultDepartment
}

// Treatment is one entry of a patient's treatment history.
type Treatment struct {
	DoctorID      uuid.UUID `json:"doctorId" bson:"doctorId"`
	DoctorName    string    `json:"doctorName" bson:"doctorName"`
	TreatmentDate time.Time `json:"treatmentDate" bson:"treatmentDate"`
	Diagnosis     *string   `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Treatment     *string   `json:"treatment,omitempty" bson:"treatment,omitempty"`
	Notes         *string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Patient maps to the patients table / collection.
type Patient struct {
	ID               uuid.UUID   `db:"id" json:"id" bson:"_id"`
	Name             string      `db:"name" json:"name" bson:"name"`
	Email            string      `db:"email" json:"email" bson:"email"`
	Phone            string      `db:"phone" json:"phone" bson:"phone"`
	DateOfBirth      *time.Time  `db:"date_of_birth" json:"dateOfBirth,omitempty" bson:"dateOfBirth,omitempty"`
	Gender           *string     `db:"gender" json:"gender,omitempty" bson:"gender,omitempty"`
	Address          *string     `db:"address" json:"address,omitempty" bson:"address,omitempty"`
	EmergencyContact *string     `db:"emergency_contact" json:"emergencyContact,omitempty" bson:"emergencyContact,omitempty"`
	MedicalHistory   *string     `db:"medical_history" json:"medicalHistory,omitempty" bson:"medicalHistory,omitempty"`
	TreatedBy        []Treatment `db:"treated_by" json:"treatedBy" bson:"treatedBy"`
	VisitCount       int         `db:"visit_count" json:"visitCount" bson:"visitCount"`
	FirstVisit       *time.Time  `db:"first_visit" json:"firstVisit,omitempty" bson:"firstVisit,omitempty"`
	LastVisit        *time.Time  `db:"last_visit" json:"lastVisit,omitempty" bson:"lastVisit,omitempty"`
	Visits           []time.Time `db:"visits" json:"visits" bson:"visits"`
	Status           string      `db:"status" json:"status" bson:"status"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// UnmarshalJSON accepts calendar dates ("1990-05-15") as well as RFC 3339
// for the date fields a reception form fills in.
func (p *Patient) UnmarshalJSON(data []byte) error {
	type alias Patient
	aux := struct {
		*alias
		DateOfBirth *dateparse.Time `json:"dateOfBirth"`
		FirstVisit  *dateparse.Time `json:"firstVisit"`
		LastVisit   *dateparse.Time `json:"lastVisit"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	// Absent keys keep their current value so a body can be decoded onto a
	// stored record.
	if aux.DateOfBirth != nil {
		p.DateOfBirth = aux.DateOfBirth.Ptr()
	}
	if aux.FirstVisit != nil {
		p.FirstVisit = aux.FirstVisit.Ptr()
	}
	if aux.LastVisit != nil {
		p.LastVisit = aux.LastVisit.Ptr()
	}
	return nil
}

// RecordVisit applies one visit event: the count, the visit log and the
// first/last visit bounds move together.
func (p *Patient) RecordVisit(at time.Time) {
	p.VisitCount++
	p.Visits = append(p.Visits, at)
	if p.FirstVisit == nil || at.Before(*p.FirstVisit) {
		t := at
		p.FirstVisit = &t
	}
	if p.LastVisit == nil || at.After(*p.LastVisit) {
		t := at
		p.LastVisit = &t
	}
}

// TreatmentsBy returns the entries recorded by doctorID.
func (p *Patient) TreatmentsBy(doctorID uuid.UUID) []Treatment {
	var out []Treatment
	for _, t := range p.TreatedBy {
		if t.DoctorID == doctorID {
			out = append(out, t)
		}
	}
	return out
}

func (p *Patient) Clone() *Patient {
	c := *p
	c.TreatedBy = append([]Treatment(nil), p.TreatedBy...)
	c.Visits = append([]time.Time(nil), p.Visits...)
	return &c
}

type DaySchedule struct {
	Start     string `json:"start,omitempty" bson:"start,omitempty"`
	End       string `json:"end,omitempty" bson:"end,omitempty"`
	Available bool   `json:"available" bson:"available"`
}

type Availability struct {
	Monday    DaySchedule `json:"monday" bson:"monday"`
	Tuesday   DaySchedule `json:"tuesday" bson:"tuesday"`
	Wednesday DaySchedule `json:"wednesday" bson:"wednesday"`
	Thursday  DaySchedule `json:"thursday" bson:"thursday"`
	Friday    DaySchedule `json:"friday" bson:"friday"`
	Saturday  DaySchedule `json:"saturday" bson:"saturday"`
	Sunday    DaySchedule `json:"sunday" bson:"sunday"`
}

// DefaultAvailability is weekdays on, weekends off.
func DefaultAvailability() Availability {
	on := DaySchedule{Available: true}
	return Availability{Monday: on, Tuesday: on, Wednesday: on, Thursday: on, Friday: on}
}

// Doctor maps to the doctors table / collection.
type Doctor struct {
	ID             uuid.UUID     `db:"id" json:"id" bson:"_id"`
	Name           string        `db:"name" json:"name" bson:"name"`
	Email          string        `db:"email" json:"email" bson:"email"`
	PasswordHash   string        `db:"password_hash" json:"-" bson:"passwordHash,omitempty"`
	Phone          string        `db:"phone" json:"phone" bson:"phone"`
	Specialty      string        `db:"specialty" json:"specialty" bson:"specialty"`
	Qualifications []string      `db:"qualifications" json:"qualifications" bson:"qualifications"`
	License        string        `db:"license" json:"license" bson:"license"`
	Experience     *int          `db:"experience" json:"experience,omitempty" bson:"experience,omitempty"`
	Department     string        `db:"department" json:"department" bson:"department"`
	Designation    string        `db:"designation" json:"designation" bson:"designation"`
	Availability   *Availability `db:"availability" json:"availability,omitempty" bson:"availability,omitempty"`
	TotalPatients  int           `db:"total_patients" json:"totalPatients" bson:"totalPatients"`
	TotalVisits    int           `db:"total_visits" json:"totalVisits" bson:"totalVisits"`
	Status         string        `db:"status" json:"status" bson:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

func (d *Doctor) Clone() *Doctor {
	c := *d
	c.Qualifications = append([]string(nil), d.Qualifications...)
	if d.Availability != nil {
		a := *d.Availability
		c.Availability = &a
	}
	if d.Experience != nil {
		e := *d.Experience
		c.Experience = &e
	}
	return &c
}

// PatientFilter narrows patient queries. Zero values match everything.
type PatientFilter struct {
	Query     string
	Status    string
	Gender    string
	TreatedBy *uuid.UUID
}

// DoctorFilter narrows doctor queries. Zero values match everything.
type DoctorFilter struct {
	Query      string
	Status     string
	Specialty  string
	Department string
}
