package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.SpecializationID,
		&d.ContactInfo,
		&d.IsBlacklisted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.ContactInfo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanSlot(row pgx.Row) (*AvailabilitySlot, error) {
	var s AvailabilitySlot
	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.IsBooked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&a.StartTime,
		&a.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(
		&t.ID,
		&t.AppointmentID,
		&t.Diagnosis,
		&t.Prescription,
		&t.Notes,
		&t.TreatmentDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTreatmentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Entity lookups

func (r *PgStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, specialization_id, contact_info, is_blacklisted
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgStore) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, contact_info
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgStore) GetSlot(ctx context.Context, id int64) (*AvailabilitySlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, to_char(start_time, 'HH24:MI'), is_booked
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, date, to_char(time, 'HH24:MI'), status
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// Availability calendar

func (r *PgStore) CreateSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) (*AvailabilitySlot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_slots (doctor_id, date, start_time, is_booked)
		VALUES ($1, $2, $3::time, FALSE)
		RETURNING id, doctor_id, date, to_char(start_time, 'HH24:MI'), is_booked
	`, doctorID, date, startTime)

	slot, err := scanSlot(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSlot
		}
		return nil, err
	}
	return slot, nil
}

func (r *PgStore) ListSlots(ctx context.Context, doctorID int64, from, to time.Time) ([]AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, date, to_char(start_time, 'HH24:MI'), is_booked
		FROM availability_slots
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, start_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// ReleaseSlot is idempotent: releasing a free or absent slot is a no-op.
func (r *PgStore) ReleaseSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = FALSE
		WHERE doctor_id = $1 AND date = $2 AND start_time = $3::time
	`, doctorID, date, startTime)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *PgStore) FindOpenSlots(ctx context.Context, specializationID int64, date time.Time) ([]DoctorAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, to_char(a.start_time, 'HH24:MI'), d.id, d.name, s.name
		FROM availability_slots a
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.date = $1
		  AND s.id = $2
		  AND a.is_booked = FALSE
		  AND d.is_blacklisted = FALSE
		ORDER BY d.name, a.start_time
	`, date, specializationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorAvailability
	byDoctor := make(map[int64]int)
	for rows.Next() {
		var (
			slot     OpenSlot
			doctorID int64
			name     string
			spec     string
		)
		if err := rows.Scan(&slot.SlotID, &slot.StartTime, &doctorID, &name, &spec); err != nil {
			return nil, err
		}

		idx, ok := byDoctor[doctorID]
		if !ok {
			result = append(result, DoctorAvailability{
				DoctorID:       doctorID,
				DoctorName:     name,
				Specialization: spec,
			})
			idx = len(result) - 1
			byDoctor[doctorID] = idx
		}
		result[idx].Slots = append(result[idx].Slots, slot)
	}
	return result, rows.Err()
}

// Scheduling transitions. Each runs as one transaction so a cancelled request
// or a lost race leaves slot and appointment state exactly as before.

func (r *PgStore) BookSlot(ctx context.Context, slotID, patientID int64) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The conditional update is the race check: of two concurrent bookings,
	// only one sees is_booked = FALSE here.
	var (
		doctorID  int64
		date      time.Time
		startTime string
	)
	err = tx.QueryRow(ctx, `
		UPDATE availability_slots
		SET is_booked = TRUE
		WHERE id = $1 AND is_booked = FALSE
		RETURNING doctor_id, date, to_char(start_time, 'HH24:MI')
	`, slotID).Scan(&doctorID, &date, &startTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("claim slot: %w", err)
	}

	// The partial unique index on (doctor_id, date, time) over non-Cancelled
	// rows is the authoritative guard beneath the flag. Cancelled history at
	// the same tuple never collides.
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, date, time, status)
		VALUES ($1, $2, $3, $4::time, 'Booked')
		RETURNING id, patient_id, doctor_id, date, to_char(time, 'HH24:MI'), status
	`, patientID, doctorID, date, startTime)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSchedulingConflict
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return appt, nil
}

func (r *PgStore) CancelAppointment(ctx context.Context, appointmentID int64) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'Cancelled'
		WHERE id = $1 AND status = 'Booked'
		RETURNING id, patient_id, doctor_id, date, to_char(time, 'HH24:MI'), status
	`, appointmentID)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Row exists but is no longer Booked, or is gone entirely.
			return nil, ErrNotCancellable
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	// Release by value; a missing slot row is fine.
	_, err = tx.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = FALSE
		WHERE doctor_id = $1 AND date = $2 AND start_time = $3::time
	`, appt.DoctorID, appt.Date, appt.StartTime)
	if err != nil {
		return nil, fmt.Errorf("free slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}
	return appt, nil
}

func (r *PgStore) CompleteAppointment(ctx context.Context, appointmentID, doctorID int64, in TreatmentInput) (*Treatment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin completion tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'Completed'
		WHERE id = $1 AND doctor_id = $2 AND status = 'Booked'
	`, appointmentID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrInvalidConsultation
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO treatments (appointment_id, diagnosis, prescription, notes, treatment_date)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, appointment_id, diagnosis, prescription, notes, treatment_date
	`, appointmentID, in.Diagnosis, in.Prescription, in.Notes)

	treatment, err := scanTreatment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSchedulingConflict
		}
		return nil, fmt.Errorf("insert treatment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit completion: %w", err)
	}
	return treatment, nil
}

// Appointment reads

func (r *PgStore) ListPatientAppointments(ctx context.Context, patientID int64) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, to_char(a.time, 'HH24:MI'), a.status,
		       d.name, s.name,
		       EXISTS(SELECT 1 FROM treatments t WHERE t.appointment_id = a.id)
		FROM appointments a
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.patient_id = $1
		ORDER BY a.date DESC, a.time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var ad AppointmentDetail
		err := rows.Scan(
			&ad.ID, &ad.PatientID, &ad.DoctorID, &ad.Date, &ad.StartTime, &ad.Status,
			&ad.DoctorName, &ad.Specialization, &ad.HasTreatment,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ad)
	}
	return result, rows.Err()
}

func (r *PgStore) ListDoctorUpcoming(ctx context.Context, doctorID int64, from time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, to_char(a.time, 'HH24:MI'), a.status,
		       p.name
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		  AND a.status = 'Booked'
		  AND a.date >= $2
		ORDER BY a.date, a.time
	`, doctorID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var ad AppointmentDetail
		err := rows.Scan(
			&ad.ID, &ad.PatientID, &ad.DoctorID, &ad.Date, &ad.StartTime, &ad.Status,
			&ad.PatientName,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ad)
	}
	return result, rows.Err()
}

func (r *PgStore) ListDoctorRecentCompleted(ctx context.Context, doctorID int64, limit int) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, to_char(a.time, 'HH24:MI'), a.status,
		       p.name, t.diagnosis
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		JOIN treatments t ON t.appointment_id = a.id
		WHERE a.doctor_id = $1 AND a.status = 'Completed'
		ORDER BY a.date DESC, a.time DESC
		LIMIT $2
	`, doctorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var ad AppointmentDetail
		err := rows.Scan(
			&ad.ID, &ad.PatientID, &ad.DoctorID, &ad.Date, &ad.StartTime, &ad.Status,
			&ad.PatientName, &ad.Diagnosis,
		)
		if err != nil {
			return nil, err
		}
		ad.HasTreatment = true
		result = append(result, ad)
	}
	return result, rows.Err()
}

// Treatments

func (r *PgStore) GetTreatmentByAppointment(ctx context.Context, appointmentID int64) (*Treatment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, diagnosis, prescription, notes, treatment_date
		FROM treatments
		WHERE appointment_id = $1
	`, appointmentID)
	return scanTreatment(row)
}

func (r *PgStore) ListPatientTreatments(ctx context.Context, patientID int64) ([]TreatmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.appointment_id, t.diagnosis, t.prescription, t.notes, t.treatment_date,
		       d.name, s.name
		FROM treatments t
		JOIN appointments a ON t.appointment_id = a.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		WHERE a.patient_id = $1
		ORDER BY t.treatment_date DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TreatmentRecord
	for rows.Next() {
		var tr TreatmentRecord
		err := rows.Scan(
			&tr.ID, &tr.AppointmentID, &tr.Diagnosis, &tr.Prescription, &tr.Notes, &tr.TreatmentDate,
			&tr.DoctorName, &tr.Specialization,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}

// Admin / reporting

func (r *PgStore) SetDoctorBlacklist(ctx context.Context, doctorID int64, blacklisted bool) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET is_blacklisted = $2
		WHERE id = $1
		RETURNING id, user_id, name, specialization_id, contact_info, is_blacklisted
	`, doctorID, blacklisted)
	return scanDoctor(row)
}

func (r *PgStore) CountTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM doctors),
		       (SELECT count(*) FROM patients),
		       (SELECT count(*) FROM appointments)
	`).Scan(&t.Doctors, &t.Patients, &t.Appointments)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PgStore) ListAllAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.date, to_char(a.time, 'HH24:MI'), a.status,
		       p.name, d.name, s.name
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN specializations s ON d.specialization_id = s.id
		ORDER BY a.date DESC, a.time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var ad AppointmentDetail
		err := rows.Scan(
			&ad.ID, &ad.PatientID, &ad.DoctorID, &ad.Date, &ad.StartTime, &ad.Status,
			&ad.PatientName, &ad.DoctorName, &ad.Specialization,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ad)
	}
	return result, rows.Err()
}

func (r *PgStore) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, contact_info
		FROM patients
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgStore) ListSpecializations(ctx context.Context) ([]Specialization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description
		FROM specializations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Specialization
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
