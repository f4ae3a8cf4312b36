package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinova/clinic-scheduling/internal/db"
	"github.com/clinova/clinic-scheduling/internal/observability"
)

var specializations = [][2]string{
	{"Cardiology", "Heart and blood vessel disorders."},
	{"Pediatrics", "Medical care of infants, children, and adolescents."},
	{"Neurology", "Disorders of the nervous system."},
	{"Dermatology", "Skin, hair and nail conditions."},
	{"Orthopedics", "Musculoskeletal injuries and disorders."},
	{"General Practice", "Primary and preventive care."},
}

var slotTimes = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00"}

func main() {
	log := observability.NewLogger("seed", getEnv("APP_ENV", "dev"))
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAdmin(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	specIDs, err := seedSpecializations(context.Background(), pool)
	if err != nil {
		log.Fatal().Err(err).Msg("seed specializations")
	}
	doctorIDs, err := seedDoctors(context.Background(), pool, specIDs, 20)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), pool, 200); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedSlots(context.Background(), pool, doctorIDs); err != nil {
		log.Fatal().Err(err).Msg("seed slots")
	}

	log.Info().Msg("seed complete")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := hashPassword(getEnv("SEED_ADMIN_PASSWORD", "admin-dev-only"))
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ('admin', $1, 'Admin')
		ON CONFLICT (username) DO NOTHING
	`, hash)
	return err
}

func seedSpecializations(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	ids := make([]int64, 0, len(specializations))
	for _, spec := range specializations {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO specializations (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id
		`, spec[0], spec[1]).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, specIDs []int64, count int) ([]int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	hash, err := hashPassword("doctor-dev-only")
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("dr_%s%d", gofakeit.Username(), i)

		var userID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, role)
			VALUES ($1, $2, 'Doctor')
			RETURNING id
		`, username, hash).Scan(&userID)
		if err != nil {
			return nil, err
		}

		var doctorID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO doctors (user_id, name, specialization_id, contact_info)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, userID, "Dr. "+gofakeit.Name(), specIDs[gofakeit.Number(0, len(specIDs)-1)], gofakeit.Email()).Scan(&doctorID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, doctorID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	hash, err := hashPassword("patient-dev-only")
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)

		var userID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, role)
			VALUES ($1, $2, 'Patient')
			RETURNING id
		`, username, hash).Scan(&userID)
		if err != nil {
			return err
		}

		// contact_info is unique; prefix with the row counter to avoid
		// collisions in generated emails.
		contact := fmt.Sprintf("%d.%s", i, gofakeit.Email())
		_, err = tx.Exec(ctx, `
			INSERT INTO patients (user_id, name, contact_info)
			VALUES ($1, $2, $3)
		`, userID, gofakeit.Name(), contact)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctorIDs []int64) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := time.Now()
	for _, doctorID := range doctorIDs {
		for day := 0; day < 7; day++ {
			date := today.AddDate(0, 0, day).Format("2006-01-02")
			for _, t := range slotTimes {
				if gofakeit.Bool() {
					continue
				}
				_, err := tx.Exec(ctx, `
					INSERT INTO availability_slots (doctor_id, date, start_time)
					VALUES ($1, $2, $3::time)
					ON CONFLICT (doctor_id, date, start_time) DO NOTHING
				`, doctorID, date, t)
				if err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit(ctx)
}
