package clinic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

// completeVisit books a slot for the patient and completes it with the given
// diagnosis, returning the appointment id.
func (f *fixture) completeVisit(t *testing.T, startTime, diagnosis string) int64 {
	t.Helper()
	slot := f.publish(t, startTime)
	appt, err := f.svc.BookSlot(context.Background(), f.patient, slot.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteWithTreatment(context.Background(), f.doctor, appt.ID, clinic.TreatmentInput{Diagnosis: diagnosis})
	require.NoError(t, err)
	return appt.ID
}

func TestPatientTreatmentHistory(t *testing.T) {
	f := newFixture(t)
	f.completeVisit(t, "09:00", "first visit")
	f.completeVisit(t, "10:00", "second visit")

	self := clinic.Actor{Role: clinic.RolePatient, PatientID: f.patient}
	records, err := f.svc.PatientTreatmentHistory(context.Background(), self, f.patient)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Dr. Adams", records[0].DoctorName)
	assert.Equal(t, "Cardiology", records[0].Specialization)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].TreatmentDate.After(records[i-1].TreatmentDate), "history must be newest first")
	}
}

func TestPatientTreatmentHistoryAccess(t *testing.T) {
	f := newFixture(t)
	f.completeVisit(t, "09:00", "flu")

	// Another patient cannot read this history; the denial is
	// indistinguishable from the patient not existing.
	other := clinic.Actor{Role: clinic.RolePatient, PatientID: f.store.addPatient("Nosy")}
	_, err := f.svc.PatientTreatmentHistory(context.Background(), other, f.patient)
	require.ErrorIs(t, err, clinic.ErrPatientNotFound)

	// Doctors and admins may read any patient's history.
	doctor := clinic.Actor{Role: clinic.RoleDoctor, DoctorID: f.store.addDoctor("Dr. Second", f.specID)}
	records, err := f.svc.PatientTreatmentHistory(context.Background(), doctor, f.patient)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	admin := clinic.Actor{Role: clinic.RoleAdmin}
	_, err = f.svc.PatientTreatmentHistory(context.Background(), admin, f.patient)
	require.NoError(t, err)

	// Unknown patient id is a 404 for everyone.
	_, err = f.svc.PatientTreatmentHistory(context.Background(), admin, 9999)
	require.ErrorIs(t, err, clinic.ErrPatientNotFound)
}

func TestTreatmentForAppointment(t *testing.T) {
	f := newFixture(t)
	apptID := f.completeVisit(t, "09:00", "sprained ankle")

	treatment, err := f.svc.TreatmentForAppointment(context.Background(), f.patient, apptID)
	require.NoError(t, err)
	assert.Equal(t, "sprained ankle", treatment.Diagnosis)
	assert.Equal(t, apptID, treatment.AppointmentID)
}

func TestTreatmentForAppointmentDenied(t *testing.T) {
	f := newFixture(t)
	apptID := f.completeVisit(t, "09:00", "flu")

	// Someone else's appointment.
	other := f.store.addPatient("Other")
	_, err := f.svc.TreatmentForAppointment(context.Background(), other, apptID)
	require.ErrorIs(t, err, clinic.ErrTreatmentNotFound)

	// Own appointment that is still Booked has no treatment yet.
	slot := f.publish(t, "10:00")
	booked, err := f.svc.BookSlot(context.Background(), f.patient, slot.ID)
	require.NoError(t, err)
	_, err = f.svc.TreatmentForAppointment(context.Background(), f.patient, booked.ID)
	require.ErrorIs(t, err, clinic.ErrTreatmentNotFound)
}
