package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/frontdesk/internal/config"
	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/platform/db"
	"github.com/clinicdesk/frontdesk/internal/platform/sandbox"
	"github.com/clinicdesk/frontdesk/migrations"
)

func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		return nil, fmt.Errorf("migrations apply to the postgres backend, STORE_BACKEND is %q", cfg.StoreBackend)
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationsFS(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the built-in set")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsFS(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the built-in set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample patients, doctors, appointments and visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend == config.BackendMemory {
				return errors.New("the memory backend loads sample data on start; seed targets postgres or mongo")
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg, newLogger(cfg.Env))
			if err != nil {
				return err
			}
			defer store.close()

			result, err := sandbox.Seed(ctx, store.Stores, sandbox.Build(time.Now()))
			if errors.Is(err, sandbox.ErrAlreadySeeded) {
				fmt.Fprintln(cmd.OutOrStdout(), "Store already has doctors; nothing seeded.")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Sample data inserted successfully!")
			fmt.Fprintf(out, "- Patients: %d\n", result.Patients)
			fmt.Fprintf(out, "- Doctors: %d\n", result.Doctors)
			fmt.Fprintf(out, "- Appointments: %d\n", result.Appointments)
			fmt.Fprintf(out, "- Visits: %d\n", result.Visits)
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Manage doctor accounts",
	}

	setPassword := &cobra.Command{
		Use:   "set-password",
		Short: "Set the login password for a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := openStore(ctx, cfg, newLogger(cfg.Env))
			if err != nil {
				return err
			}
			defer store.close()

			if err := setDoctorPassword(ctx, store, email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password set for %s\n", email)
			return nil
		},
	}
	setPassword.Flags().String("email", "", "Doctor email")
	setPassword.Flags().String("password", "", "New password (at least 8 characters)")
	cmd.AddCommand(setPassword)

	return cmd
}

func setDoctorPassword(ctx context.Context, store *recordStore, email, password string) error {
	d, err := store.Doctors.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find doctor %s: %w", email, err)
	}
	svc := identity.NewService(store.Patients, store.Doctors)
	return svc.SetDoctorPassword(ctx, d.ID, password)
}
