package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collections used by the document store.
const (
	PatientsCollection     = "patients"
	DoctorsCollection      = "doctors"
	AppointmentsCollection = "appointments"
	VisitsCollection       = "visits"
)

const connectTimeout = 10 * time.Second

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(Registry()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		PatientsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "treatedBy.doctorId", Value: 1}}},
		},
		DoctorsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "license", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AppointmentsCollection: {
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		VisitsCollection: {
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}}},
			{Keys: bson.D{{Key: "visitDate", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Pinger adapts a client to the health check.
type Pinger struct {
	Client *mongo.Client
}

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}
