package clinic

import (
	"context"
	"time"
)

// TreatmentInput is the clinical record captured when a consultation ends.
type TreatmentInput struct {
	Diagnosis    string
	Prescription string
	Notes        string
}

// Store contains all DB interactions needed by the services.
//
// Every mutating method runs as a single transaction: the read-check and the
// writes it guards never span transactions, so two concurrent callers cannot
// both observe a free slot and both win.
type Store interface {
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	GetSlot(ctx context.Context, id int64) (*AvailabilitySlot, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)

	// Availability calendar
	CreateSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) (*AvailabilitySlot, error)
	ListSlots(ctx context.Context, doctorID int64, from, to time.Time) ([]AvailabilitySlot, error)
	ReleaseSlot(ctx context.Context, doctorID int64, date time.Time, startTime string) error
	FindOpenSlots(ctx context.Context, specializationID int64, date time.Time) ([]DoctorAvailability, error)

	// Scheduling transitions
	BookSlot(ctx context.Context, slotID, patientID int64) (*Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID int64) (*Appointment, error)
	CompleteAppointment(ctx context.Context, appointmentID, doctorID int64, in TreatmentInput) (*Treatment, error)

	// Appointment reads
	ListPatientAppointments(ctx context.Context, patientID int64) ([]AppointmentDetail, error)
	ListDoctorUpcoming(ctx context.Context, doctorID int64, from time.Time) ([]AppointmentDetail, error)
	ListDoctorRecentCompleted(ctx context.Context, doctorID int64, limit int) ([]AppointmentDetail, error)

	// Treatments
	GetTreatmentByAppointment(ctx context.Context, appointmentID int64) (*Treatment, error)
	ListPatientTreatments(ctx context.Context, patientID int64) ([]TreatmentRecord, error)

	// Admin / reporting
	SetDoctorBlacklist(ctx context.Context, doctorID int64, blacklisted bool) (*Doctor, error)
	CountTotals(ctx context.Context) (*Totals, error)
	ListAllAppointments(ctx context.Context) ([]AppointmentDetail, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	ListSpecializations(ctx context.Context) ([]Specialization, error)
}

// AvailabilityCache is a best-effort read cache for availability search.
// It is never consulted for correctness; misses and failures fall through to
// the store.
type AvailabilityCache interface {
	Get(ctx context.Context, specializationID int64, date time.Time) ([]DoctorAvailability, bool)
	Set(ctx context.Context, specializationID int64, date time.Time, results []DoctorAvailability)
	Invalidate(ctx context.Context, specializationID int64, date time.Time)
	// InvalidateSpecialization drops every cached day for a specialization,
	// used when a doctor's blacklist flag changes.
	InvalidateSpecialization(ctx context.Context, specializationID int64)
}
