package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
	"github.com/clinicdesk/frontdesk/internal/platform/db"
	mstore "github.com/clinicdesk/frontdesk/internal/platform/mongo"
	"github.com/clinicdesk/frontdesk/internal/platform/sandbox"
)

// recordStore is the set of repositories behind one STORE_BACKEND, plus what
// the server needs to check and release it.
type recordStore struct {
	backend string
	sandbox.Stores
	tx      db.Transactor
	pinger  db.Pinger
	details func() interface{}
	close   func()
}

// openStore connects the configured backend. The memory backend starts with
// the built-in dataset laid out around the current time.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*recordStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return &recordStore{
			backend: cfg.StoreBackend,
			Stores: sandbox.Stores{
				Patients:     identity.NewPatientRepo(pool),
				Doctors:      identity.NewDoctorRepo(pool),
				Appointments: scheduling.NewAppointmentRepo(pool),
				Visits:       visit.NewRepo(pool),
			},
			tx:      db.PoolTransactor{Pool: pool},
			pinger:  db.PingerFunc(pool.Ping),
			details: func() interface{} { return db.GetPoolStats(pool) },
			close:   pool.Close,
		}, nil

	case config.BackendMongo:
		client, err := mstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		if err := mstore.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
		return &recordStore{
			backend: cfg.StoreBackend,
			Stores: sandbox.Stores{
				Patients:     identity.NewPatientRepoMongo(database),
				Doctors:      identity.NewDoctorRepoMongo(database),
				Appointments: scheduling.NewAppointmentRepoMongo(database),
				Visits:       visit.NewRepoMongo(database),
			},
			tx:     db.NoTx{},
			pinger: mstore.Pinger{Client: client},
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	case config.BackendMemory:
		store := &recordStore{
			backend: cfg.StoreBackend,
			Stores:  memoryStores(),
			tx:      db.NoTx{},
			pinger:  db.PingerFunc(func(context.Context) error { return nil }),
			close:   func() {},
		}
		result, err := sandbox.Seed(ctx, store.Stores, sandbox.Build(time.Now()))
		if err != nil {
			return nil, fmt.Errorf("load sample data: %w", err)
		}
		logger.Info().
			Int("patients", result.Patients).
			Int("doctors", result.Doctors).
			Int("appointments", result.Appointments).
			Int("visits", result.Visits).
			Msg("memory store loaded with sample data")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func memoryStores() sandbox.Stores {
	return sandbox.Stores{
		Patients:     identity.NewPatientRepoMemory(),
		Doctors:      identity.NewDoctorRepoMemory(),
		Appointments: scheduling.NewAppointmentRepoMemory(),
		Visits:       visit.NewRepoMemory(),
	}
}
