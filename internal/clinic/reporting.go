package clinic

import (
	"context"
	"fmt"
	"time"
)

// DoctorUpcoming lists a doctor's Booked appointments from today onward,
// earliest first.
func (s *Service) DoctorUpcoming(ctx context.Context, doctorID int64) ([]AppointmentDetail, error) {
	appts, err := s.store.ListDoctorUpcoming(ctx, doctorID, Day(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return appts, nil
}

// DoctorRecentCompleted lists a doctor's most recently completed visits with
// their diagnoses, capped at limit (5 on the dashboard).
func (s *Service) DoctorRecentCompleted(ctx context.Context, doctorID int64, limit int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 5
	}
	appts, err := s.store.ListDoctorRecentCompleted(ctx, doctorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent completed: %w", err)
	}
	return appts, nil
}

// PatientAppointmentLists splits a patient's appointments into upcoming
// (Booked, today or later) and history (everything else), newest first.
func (s *Service) PatientAppointmentLists(ctx context.Context, patientID int64) (*PatientAppointments, error) {
	all, err := s.store.ListPatientAppointments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	today := Day(time.Now())
	out := &PatientAppointments{
		Upcoming: []AppointmentDetail{},
		History:  []AppointmentDetail{},
	}
	for _, appt := range all {
		if appt.Status == StatusBooked && !appt.Date.Before(today) {
			out.Upcoming = append(out.Upcoming, appt)
		} else {
			out.History = append(out.History, appt)
		}
	}
	return out, nil
}

// SetDoctorBlacklist flips a doctor's blacklist flag. A blacklisted doctor
// disappears from availability search and accepts no new bookings; existing
// appointments are untouched.
func (s *Service) SetDoctorBlacklist(ctx context.Context, doctorID int64, blacklisted bool) (*Doctor, error) {
	doctor, err := s.store.SetDoctorBlacklist(ctx, doctorID, blacklisted)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateSpecialization(ctx, doctor.SpecializationID)
	}

	s.log.Info().
		Int64("doctor_id", doctor.ID).
		Bool("blacklisted", blacklisted).
		Msg("doctor blacklist updated")

	return doctor, nil
}

// AdminSummary returns the admin dashboard counters.
func (s *Service) AdminSummary(ctx context.Context) (*Totals, error) {
	totals, err := s.store.CountTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}
	return totals, nil
}

// AllAppointments is the full appointment report, newest first.
func (s *Service) AllAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	appts, err := s.store.ListAllAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all appointments: %w", err)
	}
	return appts, nil
}

// Patients is the registered patient roster.
func (s *Service) Patients(ctx context.Context) ([]Patient, error) {
	patients, err := s.store.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// Specializations lists the bookable specializations.
func (s *Service) Specializations(ctx context.Context) ([]Specialization, error) {
	specs, err := s.store.ListSpecializations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return specs, nil
}
