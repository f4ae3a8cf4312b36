package api

import (
	"time"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

type PublishSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type SlotResponse struct {
	ID        int64  `json:"id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	IsBooked  bool   `json:"is_booked"`
}

func newSlotResponse(s *clinic.AvailabilitySlot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date.Format(clinic.DayFormat),
		StartTime: s.StartTime,
		IsBooked:  s.IsBooked,
	}
}

type DayScheduleResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type BookAppointmentRequest struct {
	SlotID int64 `json:"slot_id"`
}

type AppointmentResponse struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    string `json:"status"`
}

func newAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date.Format(clinic.DayFormat),
		Time:      a.StartTime,
		Status:    string(a.Status),
	}
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName    string `json:"patient_name,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	HasTreatment   bool   `json:"has_treatment"`
	Diagnosis      string `json:"diagnosis,omitempty"`
}

func newAppointmentDetailResponse(a clinic.AppointmentDetail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: newAppointmentResponse(&a.Appointment),
		PatientName:         a.PatientName,
		DoctorName:          a.DoctorName,
		Specialization:      a.Specialization,
		HasTreatment:        a.HasTreatment,
		Diagnosis:           a.Diagnosis,
	}
}

func newAppointmentDetailList(appts []clinic.AppointmentDetail) []AppointmentDetailResponse {
	out := make([]AppointmentDetailResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, newAppointmentDetailResponse(a))
	}
	return out
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}

type TreatmentResponse struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	Prescription  string    `json:"prescription,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	TreatmentDate time.Time `json:"treatment_date"`
}

func newTreatmentResponse(t *clinic.Treatment) TreatmentResponse {
	return TreatmentResponse{
		ID:            t.ID,
		AppointmentID: t.AppointmentID,
		Diagnosis:     t.Diagnosis,
		Prescription:  t.Prescription,
		Notes:         t.Notes,
		TreatmentDate: t.TreatmentDate,
	}
}

type TreatmentRecordResponse struct {
	TreatmentResponse
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

type OpenSlotResponse struct {
	SlotID    int64  `json:"slot_id"`
	StartTime string `json:"start_time"`
}

type DoctorAvailabilityResponse struct {
	DoctorID       int64              `json:"doctor_id"`
	DoctorName     string             `json:"doctor_name"`
	Specialization string             `json:"specialization"`
	Slots          []OpenSlotResponse `json:"slots"`
}

type SpecializationResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PatientResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

type BlacklistRequest struct {
	Blacklisted bool `json:"blacklisted"`
}

type DoctorResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	SpecializationID int64  `json:"specialization_id"`
	ContactInfo      string `json:"contact_info,omitempty"`
	IsBlacklisted    bool   `json:"is_blacklisted"`
}

type SummaryResponse struct {
	TotalDoctors      int64 `json:"total_doctors"`
	TotalPatients     int64 `json:"total_patients"`
	TotalAppointments int64 `json:"total_appointments"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
