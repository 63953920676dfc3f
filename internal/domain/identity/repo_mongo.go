package identity

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mstore "github.com/clinicdesk/frontdesk/internal/platform/mongo"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func containsAny(q string, fields ...string) bson.A {
	re := bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(q)), "$options": "i"}
	or := bson.A{}
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return or
}

func pageOptions(limit, offset int) *options.FindOptions {
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// -- Patient Repository --

type patientRepoMongo struct {
	coll *mongo.Collection
}

func NewPatientRepoMongo(database *mongo.Database) PatientRepository {
	return &patientRepoMongo{coll: database.Collection(mstore.PatientsCollection)}
}

func (r *patientRepoMongo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TreatedBy == nil {
		p.TreatedBy = []Treatment{}
	}
	if p.Visits == nil {
		p.Visits = []time.Time{}
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, p)
	return mstore.Translate(err, "patient")
}

func (r *patientRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mstore.Translate(err, "patient")
	}
	return &p, nil
}

func (r *patientRepoMongo) Update(ctx context.Context, p *Patient) error {
	set := bson.M{
		"name":      p.Name,
		"email":     p.Email,
		"phone":     p.Phone,
		"status":    p.Status,
		"updatedAt": time.Now(),
	}
	unset := bson.M{}
	optional := map[string]*string{
		"gender":           p.Gender,
		"address":          p.Address,
		"emergencyContact": p.EmergencyContact,
		"medicalHistory":   p.MedicalHistory,
	}
	for k, v := range optional {
		if v == nil {
			unset[k] = ""
		} else {
			set[k] = *v
		}
	}
	if p.DateOfBirth == nil {
		unset["dateOfBirth"] = ""
	} else {
		set["dateOfBirth"] = p.DateOfBirth
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated Patient
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		return mstore.Translate(err, "patient")
	}
	*p = updated
	return nil
}

func (r *patientRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "patient")
	}
	return nil
}

func patientDocFilter(f PatientFilter) bson.M {
	filter := bson.M{}
	if f.Query != "" {
		filter["$or"] = containsAny(f.Query, "name", "email", "phone")
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Gender != "" {
		filter["gender"] = f.Gender
	}
	if f.TreatedBy != nil {
		filter["treatedBy.doctorId"] = *f.TreatedBy
	}
	return filter
}

func (r *patientRepoMongo) Search(ctx context.Context, f PatientFilter, limit, offset int) ([]*Patient, int, error) {
	filter := patientDocFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	patients, err := r.find(ctx, filter, pageOptions(limit, offset))
	return patients, int(total), err
}

func (r *patientRepoMongo) FindAll(ctx context.Context, f PatientFilter) ([]*Patient, error) {
	return r.find(ctx, patientDocFilter(f), options.Find().SetSort(newestFirst))
}

func (r *patientRepoMongo) Count(ctx context.Context, f PatientFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, patientDocFilter(f))
	return int(n), err
}

func (r *patientRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Patient, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	patients := []*Patient{}
	if err := cur.All(ctx, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// visitUpdate applies one visit event. $min and $max seed the bounds when
// the fields are absent.
func visitUpdate(at time.Time) bson.M {
	return bson.M{
		"$inc":  bson.M{"visitCount": 1},
		"$push": bson.M{"visits": at},
		"$min":  bson.M{"firstVisit": at},
		"$max":  bson.M{"lastVisit": at},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
}

func (r *patientRepoMongo) RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) (*Patient, error) {
	return r.apply(ctx, id, visitUpdate(at))
}

func (r *patientRepoMongo) AddTreatment(ctx context.Context, id uuid.UUID, t Treatment) (*Patient, error) {
	update := visitUpdate(t.TreatmentDate)
	update["$push"] = bson.M{"visits": t.TreatmentDate, "treatedBy": t}
	return r.apply(ctx, id, update)
}

func (r *patientRepoMongo) apply(ctx context.Context, id uuid.UUID, update bson.M) (*Patient, error) {
	var p Patient
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		return nil, mstore.Translate(err, "patient")
	}
	return &p, nil
}

// -- Doctor Repository --

type doctorRepoMongo struct {
	coll *mongo.Collection
}

func NewDoctorRepoMongo(database *mongo.Database) DoctorRepository {
	return &doctorRepoMongo{coll: database.Collection(mstore.DoctorsCollection)}
}

func (r *doctorRepoMongo) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Qualifications == nil {
		d.Qualifications = []string{}
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, d)
	return mstore.Translate(err, "doctor", "email", "license")
}

func (r *doctorRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *doctorRepoMongo) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	re := "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$"
	return r.findOne(ctx, bson.M{"email": bson.M{"$regex": re, "$options": "i"}})
}

func (r *doctorRepoMongo) findOne(ctx context.Context, filter bson.M) (*Doctor, error) {
	var d Doctor
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, mstore.Translate(err, "doctor")
	}
	return &d, nil
}

func (r *doctorRepoMongo) Update(ctx context.Context, d *Doctor) error {
	set := bson.M{
		"name":           d.Name,
		"email":          d.Email,
		"phone":          d.Phone,
		"specialty":      d.Specialty,
		"qualifications": d.Qualifications,
		"license":        d.License,
		"department":     d.Department,
		"designation":    d.Designation,
		"status":         d.Status,
		"updatedAt":      time.Now(),
	}
	unset := bson.M{}
	if d.Experience == nil {
		unset["experience"] = ""
	} else {
		set["experience"] = *d.Experience
	}
	if d.Availability == nil {
		unset["availability"] = ""
	} else {
		set["availability"] = d.Availability
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated Doctor
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": d.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		return mstore.Translate(err, "doctor", "email", "license")
	}
	*d = updated
	return nil
}

func (r *doctorRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "doctor")
	}
	return nil
}

func exactFold(v string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(v) + "$", "$options": "i"}
}

func doctorDocFilter(f DoctorFilter) bson.M {
	filter := bson.M{}
	if f.Query != "" {
		filter["$or"] = containsAny(f.Query, "name", "email", "specialty")
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Specialty != "" {
		filter["specialty"] = exactFold(f.Specialty)
	}
	if f.Department != "" {
		filter["department"] = exactFold(f.Department)
	}
	return filter
}

func (r *doctorRepoMongo) Search(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	filter := doctorDocFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	doctors, err := r.find(ctx, filter, pageOptions(limit, offset))
	return doctors, int(total), err
}

func (r *doctorRepoMongo) FindAll(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	return r.find(ctx, doctorDocFilter(f), options.Find().SetSort(newestFirst))
}

func (r *doctorRepoMongo) Count(ctx context.Context, f DoctorFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, doctorDocFilter(f))
	return int(n), err
}

func (r *doctorRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Doctor, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	doctors := []*Doctor{}
	if err := cur.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepoMongo) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	return r.updateOne(ctx, id, bson.M{
		"$inc": bson.M{"totalVisits": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
}

func (r *doctorRepoMongo) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now()}})
}

func (r *doctorRepoMongo) updateOne(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "doctor")
	}
	return nil
}
