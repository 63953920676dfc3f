package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/frontdesk/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, patient_id, doctor_id, date, time, type, reason, symptoms, status,
	reminder_sent, reminder_date, notes, patient_notes, reception_notes, consultation_fee, created_at, updated_at`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Symptoms == nil {
		a.Symptoms = []string{}
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, date, time, type, reason, symptoms, status,
			reminder_sent, reminder_date, notes, patient_notes, reception_notes, consultation_fee
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Type, a.Reason, a.Symptoms, a.Status,
		a.ReminderSent, a.ReminderDate, a.Notes, a.PatientNotes, a.ReceptionNotes, a.ConsultationFee,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return db.Translate(err, "appointment", nil)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	return a, db.Translate(err, "appointment", nil)
}

// Update locks the row while reading the old status so two concurrent
// completions cannot both observe a non-completed predecessor.
func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) (string, error) {
	if a.Symptoms == nil {
		a.Symptoms = []string{}
	}
	var prev string
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH prev AS (
			SELECT id, status FROM appointments WHERE id = $1 FOR UPDATE
		)
		UPDATE appointments AS a SET
			patient_id=$2, doctor_id=$3, date=$4, time=$5, type=$6, reason=$7, symptoms=$8, status=$9,
			reminder_sent=$10, reminder_date=$11, notes=$12, patient_notes=$13, reception_notes=$14,
			consultation_fee=$15, updated_at=NOW()
		FROM prev
		WHERE a.id = prev.id
		RETURNING prev.status, a.created_at, a.updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Type, a.Reason, a.Symptoms, a.Status,
		a.ReminderSent, a.ReminderDate, a.Notes, a.PatientNotes, a.ReceptionNotes, a.ConsultationFee,
	).Scan(&prev, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return "", db.Translate(err, "appointment", nil)
	}
	return prev, nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows, "appointment", nil)
	}
	return nil
}

func appointmentQuery(f Filter) *db.SearchQuery {
	qb := db.NewSearchQuery("appointments", appointmentCols)
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
		qb.Add(fmt.Sprintf("date >= $%d", qb.Idx()), *f.From)
	}
	if f.To != nil {
		qb.Add(fmt.Sprintf("date < $%d", qb.Idx()), *f.To)
	}
	qb.OrderBy("date DESC, time DESC, created_at DESC")
	return qb
}

func (r *appointmentRepoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	qb := appointmentQuery(f)
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	appts, err := r.query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	return appts, total, err
}

func (r *appointmentRepoPG) FindAll(ctx context.Context, f Filter) ([]*Appointment, error) {
	qb := appointmentQuery(f)
	return r.query(ctx, qb.AllSQL(), qb.Args()...)
}

func (r *appointmentRepoPG) Count(ctx context.Context, f Filter) (int, error) {
	qb := appointmentQuery(f)
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total)
	return total, err
}

func (r *appointmentRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Type, &a.Reason, &a.Symptoms, &a.Status,
		&a.ReminderSent, &a.ReminderDate, &a.Notes, &a.PatientNotes, &a.ReceptionNotes, &a.ConsultationFee,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
