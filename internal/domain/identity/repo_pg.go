package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/frontdesk/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, email, phone, date_of_birth, gender, address, emergency_contact, medical_history,
	treated_by, visit_count, first_visit, last_visit, visits, status, created_at, updated_at`

var patientUnique = map[string]string{"patients_pkey": "id"}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TreatedBy == nil {
		p.TreatedBy = []Treatment{}
	}
	if p.Visits == nil {
		p.Visits = []time.Time{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (
			id, name, email, phone, date_of_birth, gender, address, emergency_contact, medical_history,
			treated_by, visit_count, first_visit, last_visit, visits, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.Address, p.EmergencyContact, p.MedicalHistory,
		p.TreatedBy, p.VisitCount, p.FirstVisit, p.LastVisit, p.Visits, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return db.Translate(err, "patient", patientUnique)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	return p, db.Translate(err, "patient", nil)
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	updated, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET
			name=$2, email=$3, phone=$4, date_of_birth=$5, gender=$6, address=$7,
			emergency_contact=$8, medical_history=$9, status=$10, updated_at=NOW()
		WHERE id = $1
		RETURNING `+patientCols,
		p.ID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.Address,
		p.EmergencyContact, p.MedicalHistory, p.Status,
	))
	if err != nil {
		return db.Translate(err, "patient", patientUnique)
	}
	*p = *updated
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "patient", nil)
	}
	return nil
}

func patientQuery(f PatientFilter) *db.SearchQuery {
	qb := db.NewSearchQuery("patients", patientCols)
	if f.Query != "" {
		qb.Contains(f.Query, "name", "email", "phone")
	}
	if f.Status != "" {
		qb.Eq("status", f.Status)
	}
	if f.Gender != "" {
		qb.Eq("gender", f.Gender)
	}
	if f.TreatedBy != nil {
		qb.Add(fmt.Sprintf("treated_by @> $%d::jsonb", qb.Idx()), fmt.Sprintf(`[{"doctorId":%q}]`, f.TreatedBy.String()))
	}
	qb.OrderBy("created_at DESC")
	return qb
}

func (r *patientRepoPG) Search(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error) {
	qb := patientQuery(f)
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	patients, err := r.query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	return patients, total, err
}

func (r *patientRepoPG) FindAll(ctx context.Context, f PatientFilter) ([]*Patient, error) {
	qb := patientQuery(f)
	return r.query(ctx, qb.AllSQL(), qb.Args()...)
}

func (r *patientRepoPG) Count(ctx context.Context, f PatientFilter) (int, error) {
	qb := patientQuery(f)
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total)
	return total, err
}

func (r *patientRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Patient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// LEAST and GREATEST skip NULLs, so the first event seeds both bounds.
const recordVisitSQL = `
		visit_count = visit_count + 1,
		visits = array_append(visits, $2),
		first_visit = LEAST(first_visit, $2),
		last_visit = GREATEST(last_visit, $2),
		updated_at = NOW()`

func (r *patientRepoPG) RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE patients SET`+recordVisitSQL+` WHERE id = $1 RETURNING `+patientCols, id, at))
	return p, db.Translate(err, "patient", nil)
}

func (r *patientRepoPG) AddTreatment(ctx context.Context, id uuid.UUID, t Treatment) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE patients SET treated_by = treated_by || $3::jsonb,`+recordVisitSQL+` WHERE id = $1 RETURNING `+patientCols,
		id, t.TreatmentDate, []Treatment{t}))
	return p, db.Translate(err, "patient", nil)
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.DateOfBirth, &p.Gender, &p.Address, &p.EmergencyContact, &p.MedicalHistory,
		&p.TreatedBy, &p.VisitCount, &p.FirstVisit, &p.LastVisit, &p.Visits, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, name, email, password_hash, phone, specialty, qualifications, license, experience,
	department, designation, availability, total_patients, total_visits, status, created_at, updated_at`

var doctorUnique = map[string]string{
	"doctors_pkey":        "id",
	"doctors_email_key":   "email",
	"doctors_license_key": "license",
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Qualifications == nil {
		d.Qualifications = []string{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (
			id, name, email, password_hash, phone, specialty, qualifications, license, experience,
			department, designation, availability, total_patients, total_visits, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Email, d.PasswordHash, d.Phone, d.Specialty, d.Qualifications, d.License, d.Experience,
		d.Department, d.Designation, d.Availability, d.TotalPatients, d.TotalVisits, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return db.Translate(err, "doctor", doctorUnique)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	return d, db.Translate(err, "doctor", nil)
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE lower(email) = lower($1)`, email))
	return d, db.Translate(err, "doctor", nil)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	updated, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE doctors SET
			name=$2, email=$3, phone=$4, specialty=$5, qualifications=$6, license=$7, experience=$8,
			department=$9, designation=$10, availability=$11, status=$12, updated_at=NOW()
		WHERE id = $1
		RETURNING `+doctorCols,
		d.ID, d.Name, d.Email, d.Phone, d.Specialty, d.Qualifications, d.License, d.Experience,
		d.Department, d.Designation, d.Availability, d.Status,
	))
	if err != nil {
		return db.Translate(err, "doctor", doctorUnique)
	}
	*d = *updated
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "doctor", nil)
	}
	return nil
}

func doctorQuery(f DoctorFilter) *db.SearchQuery {
	qb := db.NewSearchQuery("doctors", doctorCols)
	if f.Query != "" {
		qb.Contains(f.Query, "name", "email", "specialty")
	}
	if f.Status != "" {
		qb.Eq("status", f.Status)
	}
	if f.Specialty != "" {
		qb.Add(fmt.Sprintf("lower(specialty) = lower($%d)", qb.Idx()), f.Specialty)
	}
	if f.Department != "" {
		qb.Add(fmt.Sprintf("lower(department) = lower($%d)", qb.Idx()), f.Department)
	}
	qb.OrderBy("created_at DESC")
	return qb
}

func (r *doctorRepoPG) Search(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	qb := doctorQuery(f)
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	doctors, err := r.query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	return doctors, total, err
}

func (r *doctorRepoPG) FindAll(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	qb := doctorQuery(f)
	return r.query(ctx, qb.AllSQL(), qb.Args()...)
}

func (r *doctorRepoPG) Count(ctx context.Context, f DoctorFilter) (int, error) {
	qb := doctorQuery(f)
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total)
	return total, err
}

func (r *doctorRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Doctor, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorRepoPG) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctors SET total_visits = total_visits + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "doctor", nil)
	}
	return nil
}

func (r *doctorRepoPG) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctors SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "doctor", nil)
	}
	return nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Phone, &d.Specialty, &d.Qualifications, &d.License, &d.Experience,
		&d.Department, &d.Designation, &d.Availability, &d.TotalPatients, &d.TotalVisits, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
