package clinic

import "errors"

var (
	// ErrInvalidDate rejects operations on past calendar dates.
	ErrInvalidDate = errors.New("date is in the past")

	// ErrInvalidTime rejects malformed times of day (expected HH:MM).
	ErrInvalidTime = errors.New("invalid start time")

	// ErrDuplicateSlot is informational: the slot already exists and the
	// publish is a no-op.
	ErrDuplicateSlot = errors.New("availability slot already exists")

	// ErrSlotUnavailable covers both an already-booked slot and a lost race.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrSchedulingConflict is raised when the partial unique index on
	// non-Cancelled (doctor, date, time) rows fires at commit. The flag check
	// is the fast path; the index is the invariant enforcer.
	ErrSchedulingConflict = errors.New("conflicting appointment exists for this slot")

	ErrNotCancellable      = errors.New("appointment cannot be cancelled")
	ErrInvalidConsultation = errors.New("appointment is not ready for consultation")

	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSlotNotFound        = errors.New("availability slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTreatmentNotFound   = errors.New("treatment not found")
)
