package visit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/frontdesk/internal/platform/db"
)

type visitRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &visitRepoPG{pool: pool}
}

const visitCols = `id, patient_id, doctor_id, visit_date, visit_type, appointment_time, vitals, symptoms,
	diagnosis, treatment, prescriptions, tests_ordered, follow_up_date, follow_up_notes,
	consultation_fee, test_fees, total_amount, payment_status, doctor_notes, reception_notes,
	status, created_at, updated_at`

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Normalize()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO visits (
			id, patient_id, doctor_id, visit_date, visit_type, appointment_time, vitals, symptoms,
			diagnosis, treatment, prescriptions, tests_ordered, follow_up_date, follow_up_notes,
			consultation_fee, test_fees, total_amount, payment_status, doctor_notes, reception_notes, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING created_at, updated_at`,
		v.ID, v.PatientID, v.DoctorID, v.VisitDate, v.VisitType, v.AppointmentTime, v.Vitals, v.Symptoms,
		v.Diagnosis, v.Treatment, v.Prescriptions, v.TestsOrdered, v.FollowUpDate, v.FollowUpNotes,
		v.ConsultationFee, v.TestFees, v.TotalAmount, v.PaymentStatus, v.DoctorNotes, v.ReceptionNotes, v.Status,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	return db.Translate(err, "visit", nil)
}

func (r *visitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
	return v, db.Translate(err, "visit", nil)
}

func (r *visitRepoPG) Update(ctx context.Context, v *Visit) error {
	v.Normalize()
	updated, err := scanVisit(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE visits SET
			patient_id=$2, doctor_id=$3, visit_date=$4, visit_type=$5, appointment_time=$6, vitals=$7,
			symptoms=$8, diagnosis=$9, treatment=$10, prescriptions=$11, tests_ordered=$12,
			follow_up_date=$13, follow_up_notes=$14, consultation_fee=$15, test_fees=$16,
			total_amount=$17, payment_status=$18, doctor_notes=$19, reception_notes=$20, status=$21,
			updated_at=NOW()
		WHERE id = $1
		RETURNING `+visitCols,
		v.ID, v.PatientID, v.DoctorID, v.VisitDate, v.VisitType, v.AppointmentTime, v.Vitals,
		v.Symptoms, v.Diagnosis, v.Treatment, v.Prescriptions, v.TestsOrdered,
		v.FollowUpDate, v.FollowUpNotes, v.ConsultationFee, v.TestFees,
		v.TotalAmount, v.PaymentStatus, v.DoctorNotes, v.ReceptionNotes, v.Status,
	))
	if err != nil {
		return db.Translate(err, "visit", nil)
	}
	*v = *updated
	return nil
}

func (r *visitRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "visit", nil)
	}
	return nil
}

func visitQuery(f Filter) *db.SearchQuery {
	qb := db.NewSearchQuery("visits", visitCols)
	if f.PatientID != nil {
		qb.Eq("patient_id", *f.PatientID)
	}
	if f.DoctorID != nil {
		qb.Eq("doctor_id", *f.DoctorID)
	}
	if f.Status != "" {
		qb.Eq("status", f.Status)
	}
	if f.From != nil {
		qb.Add(fmt.Sprintf("visit_date >= $%d", qb.Idx()), *f.From)
	}
	if f.To != nil {
		qb.Add(fmt.Sprintf("visit_date < $%d", qb.Idx()), *f.To)
	}
	qb.OrderBy("visit_date DESC, created_at DESC")
	return qb
}

func (r *visitRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	qb := visitQuery(f)
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	visits, err := r.query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	return visits, total, err
}

func (r *visitRepoPG) FindAll(ctx context.Context, f Filter) ([]*Visit, error) {
	qb := visitQuery(f)
	return r.query(ctx, qb.AllSQL(), qb.Args()...)
}

func (r *visitRepoPG) Count(ctx context.Context, f Filter) (int, error) {
	qb := visitQuery(f)
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total)
	return total, err
}

func (r *visitRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Visit, error) {
	return r.set(ctx, `status = $2`, id, status)
}

func (r *visitRepoPG) AddPrescription(ctx context.Context, id uuid.UUID, p Prescription) (*Visit, error) {
	return r.set(ctx, `prescriptions = prescriptions || $2::jsonb`, id, []Prescription{p})
}

func (r *visitRepoPG) AddTestOrder(ctx context.Context, id uuid.UUID, t TestOrder) (*Visit, error) {
	return r.set(ctx, `tests_ordered = tests_ordered || $2::jsonb`, id, []TestOrder{t})
}

func (r *visitRepoPG) set(ctx context.Context, assignment string, id uuid.UUID, arg interface{}) (*Visit, error) {
	v, err := scanVisit(db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE visits SET `+assignment+`, updated_at = NOW() WHERE id = $1 RETURNING `+visitCols, id, arg))
	return v, db.Translate(err, "visit", nil)
}

func (r *visitRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Visit, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := []*Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID, &v.PatientID, &v.DoctorID, &v.VisitDate, &v.VisitType, &v.AppointmentTime, &v.Vitals, &v.Symptoms,
		&v.Diagnosis, &v.Treatment, &v.Prescriptions, &v.TestsOrdered, &v.FollowUpDate, &v.FollowUpNotes,
		&v.ConsultationFee, &v.TestFees, &v.TotalAmount, &v.PaymentStatus, &v.DoctorNotes, &v.ReceptionNotes,
		&v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
