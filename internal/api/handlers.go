package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

// Doctor: availability

func publishSlotHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		var req PublishSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := clinic.ParseDay(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slot, err := svc.PublishSlot(r.Context(), actor.DoctorID, date, req.StartTime)
		if err != nil {
			if errors.Is(err, clinic.ErrDuplicateSlot) {
				// Informational outcome, not a failure: the slot already exists.
				writeJSON(w, http.StatusOK, MessageResponse{
					Message: "slot already exists for " + req.Date + " at " + req.StartTime,
				})
				return
			}
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newSlotResponse(slot))
	}
}

func weekScheduleHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		grid, err := svc.WeekSchedule(r.Context(), actor.DoctorID, time.Now())
		if err != nil {
			handleClinicError(w, err)
			return
		}

		resp := make([]DayScheduleResponse, 0, len(grid))
		for _, day := range grid {
			slots := make([]SlotResponse, 0, len(day.Slots))
			for i := range day.Slots {
				slots = append(slots, newSlotResponse(&day.Slots[i]))
			}
			resp = append(resp, DayScheduleResponse{
				Date:  day.Date.Format(clinic.DayFormat),
				Slots: slots,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func doctorAppointmentsHandler(svc *clinic.Service, recentLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		upcoming, err := svc.DoctorUpcoming(r.Context(), actor.DoctorID)
		if err != nil {
			handleClinicError(w, err)
			return
		}
		recent, err := svc.DoctorRecentCompleted(r.Context(), actor.DoctorID, recentLimit)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"upcoming":         newAppointmentDetailList(upcoming),
			"recent_completed": newAppointmentDetailList(recent),
		})
	}
}

// Patient: search and booking

func findAvailabilityHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specializationID, err := strconv.ParseInt(r.URL.Query().Get("specialization_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_specialization", "specialization_id must be an integer")
			return
		}
		date, err := clinic.ParseDay(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		results, err := svc.FindAvailable(r.Context(), specializationID, date)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		resp := make([]DoctorAvailabilityResponse, 0, len(results))
		for _, doc := range results {
			slots := make([]OpenSlotResponse, 0, len(doc.Slots))
			for _, s := range doc.Slots {
				slots = append(slots, OpenSlotResponse{SlotID: s.SlotID, StartTime: s.StartTime})
			}
			resp = append(resp, DoctorAvailabilityResponse{
				DoctorID:       doc.DoctorID,
				DoctorName:     doc.DoctorName,
				Specialization: doc.Specialization,
				Slots:          slots,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.SlotID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a positive integer")
			return
		}

		appt, err := svc.BookSlot(r.Context(), actor.PatientID, req.SlotID)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), actor, id)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		var req CompleteAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		treatment, err := svc.CompleteWithTreatment(r.Context(), actor.DoctorID, id, clinic.TreatmentInput{
			Diagnosis:    req.Diagnosis,
			Prescription: req.Prescription,
			Notes:        req.Notes,
		})
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newTreatmentResponse(treatment))
	}
}

func patientAppointmentsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		lists, err := svc.PatientAppointmentLists(r.Context(), actor.PatientID)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"upcoming": newAppointmentDetailList(lists.Upcoming),
			"history":  newAppointmentDetailList(lists.History),
		})
	}
}

// Treatments

func treatmentRecordList(records []clinic.TreatmentRecord) []TreatmentRecordResponse {
	out := make([]TreatmentRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, TreatmentRecordResponse{
			TreatmentResponse: newTreatmentResponse(&rec.Treatment),
			DoctorName:        rec.DoctorName,
			Specialization:    rec.Specialization,
		})
	}
	return out
}

func myTreatmentsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		records, err := svc.PatientTreatmentHistory(r.Context(), actor, actor.PatientID)
		if err != nil {
			handleClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, treatmentRecordList(records))
	}
}

func patientTreatmentsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		patientID, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be an integer")
			return
		}

		records, err := svc.PatientTreatmentHistory(r.Context(), actor, patientID)
		if err != nil {
			handleClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, treatmentRecordList(records))
	}
}

func appointmentTreatmentHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := GetActor(r.Context())

		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be an integer")
			return
		}

		treatment, err := svc.TreatmentForAppointment(r.Context(), actor.PatientID, id)
		if err != nil {
			handleClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTreatmentResponse(treatment))
	}
}

func specializationsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specs, err := svc.Specializations(r.Context())
		if err != nil {
			handleClinicError(w, err)
			return
		}

		resp := make([]SpecializationResponse, 0, len(specs))
		for _, s := range specs {
			resp = append(resp, SpecializationResponse{ID: s.ID, Name: s.Name, Description: s.Description})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleClinicError maps domain errors onto HTTP status codes.
func handleClinicError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, clinic.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
	case errors.Is(err, clinic.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, clinic.ErrSchedulingConflict):
		writeError(w, http.StatusConflict, "scheduling_conflict", err.Error())
	case errors.Is(err, clinic.ErrNotCancellable):
		writeError(w, http.StatusConflict, "not_cancellable", err.Error())
	case errors.Is(err, clinic.ErrInvalidConsultation):
		writeError(w, http.StatusConflict, "invalid_consultation", err.Error())
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrTreatmentNotFound):
		writeError(w, http.StatusNotFound, "treatment_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
