package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mstore "github.com/clinicdesk/frontdesk/internal/platform/mongo"
)

var latestFirstSort = bson.D{
	{Key: "date", Value: -1},
	{Key: "time", Value: -1},
	{Key: "createdAt", Value: -1},
}

type appointmentRepoMongo struct {
	coll *mongo.Collection
}

func NewAppointmentRepoMongo(database *mongo.Database) AppointmentRepository {
	return &appointmentRepoMongo{coll: database.Collection(mstore.AppointmentsCollection)}
}

func (r *appointmentRepoMongo) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Symptoms == nil {
		a.Symptoms = []string{}
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, a)
	return mstore.Translate(err, "appointment")
}

func (r *appointmentRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, mstore.Translate(err, "appointment")
	}
	return &a, nil
}

// Update swaps the document in one FindOneAndReplace and reads the status
// from the document it replaced.
func (r *appointmentRepoMongo) Update(ctx context.Context, a *Appointment) (string, error) {
	if a.Symptoms == nil {
		a.Symptoms = []string{}
	}
	existing, err := r.GetByID(ctx, a.ID)
	if err != nil {
		return "", err
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()

	var before Appointment
	err = r.coll.FindOneAndReplace(ctx, bson.M{"_id": a.ID}, a,
		options.FindOneAndReplace().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		return "", mstore.Translate(err, "appointment")
	}
	return before.Status, nil
}

func (r *appointmentRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "appointment")
	}
	return nil
}

func appointmentDocFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.PatientID != nil {
		filter["patientId"] = *f.PatientID
	}
	if f.DoctorID != nil {
		filter["doctorId"] = *f.DoctorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lt"] = *f.To
		}
		filter["date"] = rng
	}
	return filter
}

func (r *appointmentRepoMongo) Search(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	filter := appointmentDocFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(latestFirstSort).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	appts, err := r.find(ctx, filter, opts)
	return appts, int(total), err
}

func (r *appointmentRepoMongo) FindAll(ctx context.Context, f Filter) ([]*Appointment, error) {
	return r.find(ctx, appointmentDocFilter(f), options.Find().SetSort(latestFirstSort))
}

func (r *appointmentRepoMongo) Count(ctx context.Context, f Filter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, appointmentDocFilter(f))
	return int(n), err
}

func (r *appointmentRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Appointment, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	appts := []*Appointment{}
	if err := cur.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}
