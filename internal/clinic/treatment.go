package clinic

import (
	"context"
	"fmt"
)

// PatientTreatmentHistory returns a patient's treatments newest-first.
// Doctors may read any patient's history (they see it during consultation);
// patients only their own.
func (s *Service) PatientTreatmentHistory(ctx context.Context, actor Actor, patientID int64) ([]TreatmentRecord, error) {
	switch actor.Role {
	case RoleDoctor, RoleAdmin:
	case RolePatient:
		if actor.PatientID != patientID {
			return nil, ErrPatientNotFound
		}
	default:
		return nil, ErrPatientNotFound
	}

	if _, err := s.store.GetPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	records, err := s.store.ListPatientTreatments(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	return records, nil
}

// TreatmentForAppointment lets a patient read the treatment attached to one
// of their completed appointments.
func (s *Service) TreatmentForAppointment(ctx context.Context, patientID, appointmentID int64) (*Treatment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.PatientID != patientID || appt.Status != StatusCompleted {
		return nil, ErrTreatmentNotFound
	}

	treatment, err := s.store.GetTreatmentByAppointment(ctx, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("load treatment: %w", err)
	}
	return treatment, nil
}
