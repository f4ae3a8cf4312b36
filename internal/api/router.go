package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinova/clinic-scheduling/internal/clinic"
)

type RouterConfig struct {
	Service          *clinic.Service
	PgPool           *pgxpool.Pool
	Redis            *redis.Client
	Env              string
	Version          string
	Logger           zerolog.Logger
	RecentVisitLimit int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Everything else acts as an authenticated identity.
	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Get("/specializations", specializationsHandler(cfg.Service))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(clinic.RoleDoctor))
			r.Post("/slots", publishSlotHandler(cfg.Service))
			r.Get("/doctors/me/schedule", weekScheduleHandler(cfg.Service))
			r.Get("/doctors/me/appointments", doctorAppointmentsHandler(cfg.Service, cfg.RecentVisitLimit))
			r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
			r.Get("/patients/{id}/treatments", patientTreatmentsHandler(cfg.Service))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(clinic.RolePatient))
			r.Get("/availability", findAvailabilityHandler(cfg.Service))
			r.Post("/appointments", bookAppointmentHandler(cfg.Service))
			r.Get("/patients/me/appointments", patientAppointmentsHandler(cfg.Service))
			r.Get("/patients/me/treatments", myTreatmentsHandler(cfg.Service))
			r.Get("/appointments/{id}/treatment", appointmentTreatmentHandler(cfg.Service))
		})

		// Doctors and patients may both cancel; ownership is checked inside.
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(clinic.RoleAdmin))
			r.Get("/admin/reports/summary", adminSummaryHandler(cfg.Service))
			r.Get("/admin/appointments", adminAppointmentsHandler(cfg.Service))
			r.Get("/admin/patients", adminPatientsHandler(cfg.Service))
			r.Post("/admin/doctors/{id}/blacklist", blacklistDoctorHandler(cfg.Service))
		})
	})

	return r
}
