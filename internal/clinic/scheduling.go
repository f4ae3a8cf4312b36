package clinic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service drives the scheduling state machine: slot allocation, cancellation
// and consultation completion, plus the availability and reporting reads the
// presentation layer consumes.
type Service struct {
	store Store
	cache AvailabilityCache
	log   zerolog.Logger
}

func NewService(store Store, cache AvailabilityCache, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		cache: cache,
		log:   log,
	}
}

// BookSlot reserves an open availability slot for a patient and creates the
// Booked appointment in the same transaction.
//
// The is_booked flag read here is a fast path only; the store re-validates it
// with a conditional update inside the transaction, and the partial unique
// index on non-Cancelled (doctor, date, time) rows is the final arbiter. A
// lost race surfaces as ErrSlotUnavailable or ErrSchedulingConflict, never as
// a duplicate booking.
func (s *Service) BookSlot(ctx context.Context, patientID, slotID int64) (*Appointment, error) {
	patient, err := s.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.IsBooked {
		return nil, ErrSlotUnavailable
	}

	doctor, err := s.store.GetDoctor(ctx, slot.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.IsBlacklisted {
		// Blacklisted doctors accept no new bookings; existing ones stand.
		return nil, ErrSlotUnavailable
	}

	appt, err := s.store.BookSlot(ctx, slot.ID, patient.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateDay(ctx, doctor.SpecializationID, slot.Date)

	s.log.Info().
		Int64("appointment_id", appt.ID).
		Int64("slot_id", slot.ID).
		Int64("patient_id", patient.ID).
		Int64("doctor_id", doctor.ID).
		Str("date", slot.Date.Format(DayFormat)).
		Str("time", slot.StartTime).
		Msg("slot booked")

	return appt, nil
}

// CancelAppointment moves a Booked appointment to Cancelled and frees its
// slot as one atomic unit. Doctors may cancel their own appointments,
// patients theirs; nobody else's.
func (s *Service) CancelAppointment(ctx context.Context, actor Actor, appointmentID int64) (*Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !actorOwns(actor, appt) {
		return nil, ErrNotCancellable
	}
	if appt.Status != StatusBooked {
		return nil, ErrNotCancellable
	}

	cancelled, err := s.store.CancelAppointment(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	if doctor, derr := s.store.GetDoctor(ctx, appt.DoctorID); derr == nil {
		s.invalidateDay(ctx, doctor.SpecializationID, appt.Date)
	}

	s.log.Info().
		Int64("appointment_id", cancelled.ID).
		Str("role", string(actor.Role)).
		Msg("appointment cancelled, slot freed")

	return cancelled, nil
}

// CompleteWithTreatment closes a consultation: the appointment transitions to
// Completed and the treatment record is inserted, atomically. The slot stays
// consumed, which is what distinguishes a treated visit from a cancelled one.
func (s *Service) CompleteWithTreatment(ctx context.Context, doctorID, appointmentID int64, in TreatmentInput) (*Treatment, error) {
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, ErrInvalidConsultation
	}

	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctorID || appt.Status != StatusBooked {
		return nil, ErrInvalidConsultation
	}

	treatment, err := s.store.CompleteAppointment(ctx, appt.ID, doctorID, in)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("appointment_id", appt.ID).
		Int64("doctor_id", doctorID).
		Int64("treatment_id", treatment.ID).
		Msg("consultation completed")

	return treatment, nil
}

// FindAvailable returns bookable slots for a specialization on a date,
// grouped by doctor. Blacklisted doctors and booked slots never surface.
func (s *Service) FindAvailable(ctx context.Context, specializationID int64, date time.Time) ([]DoctorAvailability, error) {
	day := Day(date)
	if day.Before(Day(time.Now())) {
		return nil, ErrInvalidDate
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, specializationID, day); ok {
			return cached, nil
		}
	}

	results, err := s.store.FindOpenSlots(ctx, specializationID, day)
	if err != nil {
		return nil, fmt.Errorf("find open slots: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, specializationID, day, results)
	}

	return results, nil
}

func (s *Service) invalidateDay(ctx context.Context, specializationID int64, date time.Time) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, specializationID, Day(date))
	}
}

func actorOwns(actor Actor, appt *Appointment) bool {
	switch actor.Role {
	case RoleDoctor:
		return actor.DoctorID == appt.DoctorID
	case RolePatient:
		return actor.PatientID == appt.PatientID
	}
	return false
}
