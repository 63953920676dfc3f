package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mstore "github.com/clinicdesk/frontdesk/internal/platform/mongo"
)

var newestFirstSort = bson.D{{Key: "visitDate", Value: -1}, {Key: "createdAt", Value: -1}}

type visitRepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(database *mongo.Database) Repository {
	return &visitRepoMongo{coll: database.Collection(mstore.VisitsCollection)}
}

func (r *visitRepoMongo) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Normalize()
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, v)
	return mstore.Translate(err, "visit")
}

func (r *visitRepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	var v Visit
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, mstore.Translate(err, "visit")
	}
	return &v, nil
}

func (r *visitRepoMongo) Update(ctx context.Context, v *Visit) error {
	v.Normalize()
	existing, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return mstore.Translate(err, "visit")
	}
	if res.MatchedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "visit")
	}
	return nil
}

func (r *visitRepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mstore.Translate(mongo.ErrNoDocuments, "visit")
	}
	return nil
}

func visitDocFilter(f Filter) bson.M {
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
		filter["visitDate"] = rng
	}
	return filter
}

func (r *visitRepoMongo) Search(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	filter := visitDocFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(newestFirstSort).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	visits, err := r.find(ctx, filter, opts)
	return visits, int(total), err
}

func (r *visitRepoMongo) FindAll(ctx context.Context, f Filter) ([]*Visit, error) {
	return r.find(ctx, visitDocFilter(f), options.Find().SetSort(newestFirstSort))
}

func (r *visitRepoMongo) Count(ctx context.Context, f Filter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, visitDocFilter(f))
	return int(n), err
}

func (r *visitRepoMongo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Visit, error) {
	return r.apply(ctx, id, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
}

func (r *visitRepoMongo) AddPrescription(ctx context.Context, id uuid.UUID, p Prescription) (*Visit, error) {
	return r.apply(ctx, id, bson.M{
		"$push": bson.M{"prescriptions": p},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (r *visitRepoMongo) AddTestOrder(ctx context.Context, id uuid.UUID, t TestOrder) (*Visit, error) {
	return r.apply(ctx, id, bson.M{
		"$push": bson.M{"testsOrdered": t},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (r *visitRepoMongo) apply(ctx context.Context, id uuid.UUID, update bson.M) (*Visit, error) {
	var v Visit
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&v)
	if err != nil {
		return nil, mstore.Translate(err, "visit")
	}
	return &v, nil
}

func (r *visitRepoMongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Visit, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	visits := []*Visit{}
	if err := cur.All(ctx, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}
