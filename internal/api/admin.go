package api

import (
	"encoding/json"
	"net/http"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

func adminSummaryHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		totals, err := svc.AdminSummary(r.Context())
		if err != nil {
			handleClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SummaryResponse{
			TotalDoctors:      totals.Doctors,
			TotalPatients:     totals.Patients,
			TotalAppointments: totals.Appointments,
		})
	}
}

func adminAppointmentsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.AllAppointments(r.Context())
		if err != nil {
			handleClinicError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAppointmentDetailList(appts))
	}
}

func adminPatientsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.Patients(r.Context())
		if err != nil {
			handleClinicError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			resp = append(resp, PatientResponse{ID: p.ID, Name: p.Name, ContactInfo: p.ContactInfo})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func blacklistDoctorHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be an integer")
			return
		}

		var req BlacklistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctor, err := svc.SetDoctorBlacklist(r.Context(), id, req.Blacklisted)
		if err != nil {
			handleClinicError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DoctorResponse{
			ID:               doctor.ID,
			Name:             doctor.Name,
			SpecializationID: doctor.SpecializationID,
			ContactInfo:      doctor.ContactInfo,
			IsBlacklisted:    doctor.IsBlacklisted,
		})
	}
}
