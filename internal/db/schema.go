package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. Statements are idempotent so repeated runs
// are safe. The unique constraint on availability_slots and the partial
// unique index on appointments are load-bearing: they are the authoritative
// double-booking guard. Cancelled rows are excluded from the index so they
// persist as history while the (doctor, date, time) tuple stays re-bookable.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            bigserial PRIMARY KEY,
		username      text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		role          text NOT NULL CHECK (role IN ('Admin', 'Doctor', 'Patient'))
	)`,
	`CREATE TABLE IF NOT EXISTS specializations (
		id          bigserial PRIMARY KEY,
		name        text NOT NULL UNIQUE,
		description text NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id                bigserial PRIMARY KEY,
		user_id           bigint NOT NULL UNIQUE REFERENCES users(id),
		name              text NOT NULL,
		specialization_id bigint NOT NULL REFERENCES specializations(id),
		contact_info      text NOT NULL DEFAULT '',
		is_blacklisted    boolean NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id           bigserial PRIMARY KEY,
		user_id      bigint NOT NULL UNIQUE REFERENCES users(id),
		name         text NOT NULL,
		contact_info text NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS availability_slots (
		id         bigserial PRIMARY KEY,
		doctor_id  bigint NOT NULL REFERENCES doctors(id),
		date       date NOT NULL,
		start_time time NOT NULL,
		is_booked  boolean NOT NULL DEFAULT FALSE,
		UNIQUE (doctor_id, date, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         bigserial PRIMARY KEY,
		patient_id bigint NOT NULL REFERENCES patients(id),
		doctor_id  bigint NOT NULL REFERENCES doctors(id),
		date       date NOT NULL,
		time       time NOT NULL,
		status     text NOT NULL CHECK (status IN ('Booked', 'Completed', 'Cancelled'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_active_slot_key
		ON appointments (doctor_id, date, time)
		WHERE status <> 'Cancelled'`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id             bigserial PRIMARY KEY,
		appointment_id bigint NOT NULL UNIQUE REFERENCES appointments(id),
		diagnosis      text NOT NULL,
		prescription   text NOT NULL DEFAULT '',
		notes          text NOT NULL DEFAULT '',
		treatment_date timestamptz NOT NULL DEFAULT now()
	)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
