package router

import (
	"net/http"

	"github.com/BerylCAtieno/health-records-api/internal/handlers"
	"github.com/BerylCAtieno/health-records-api/internal/middleware"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/services"
	"github.com/BerylCAtieno/health-records-api/internal/utils"

	"github.com/gorilla/mux"
)

type Services struct {
	Reports     services.ReportService
	Assignments services.AssignmentService
	Medications services.MedicationService
	Health      services.HealthService
}

type Options struct {
	JWTSecret   []byte
	MaxFileSize int64
}

func NewRouter(svc Services, opts Options, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	reportHandler := handlers.NewReportHandler(svc.Reports, opts.MaxFileSize, logger)
	sharedHandler := handlers.NewSharedReportHandler(svc.Assignments, logger)
	healthHandler := handlers.NewHealthHandler(svc.Health, svc.Medications, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Everything below needs a bearer token
	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.Auth(opts.JWTSecret))

	patient := middleware.RequireRole(models.RolePatient)
	doctor := middleware.RequireRole(models.RoleDoctor)

	// Reports
	authed.Handle("/reports/upload", patient(http.HandlerFunc(reportHandler.UploadReport))).Methods(http.MethodPost)
	authed.Handle("/reports", patient(http.HandlerFunc(reportHandler.ListReports))).Methods(http.MethodGet)
	authed.HandleFunc("/reports/{id}", reportHandler.GetReport).Methods(http.MethodGet)
	authed.Handle("/reports/{id}", patient(http.HandlerFunc(reportHandler.DeleteReport))).Methods(http.MethodDelete)

	// Doctor assignment and shared reports
	authed.Handle("/uploadReport", patient(http.HandlerFunc(sharedHandler.AssignDoctor))).Methods(http.MethodPost)
	authed.Handle("/shared-reports", patient(http.HandlerFunc(sharedHandler.ListSharedReports))).Methods(http.MethodGet)
	authed.Handle("/shared-reports/{id}/approve", patient(http.HandlerFunc(sharedHandler.ApproveDoctor))).Methods(http.MethodPut)
	authed.Handle("/shared-reports/{id}/complete", doctor(http.HandlerFunc(sharedHandler.CompleteTreatment))).Methods(http.MethodPut)
	authed.Handle("/shared-reports/{id}/hide", doctor(http.HandlerFunc(sharedHandler.HideFromDashboard))).Methods(http.MethodPut)
	authed.Handle("/shared-reports/{id}", doctor(http.HandlerFunc(sharedHandler.ViewSharedReport))).Methods(http.MethodGet)
	authed.Handle("/doctor/patients", doctor(http.HandlerFunc(sharedHandler.DoctorPatients))).Methods(http.MethodGet)
	authed.Handle("/doctor/pending-approvals", doctor(http.HandlerFunc(sharedHandler.PendingApprovals))).Methods(http.MethodGet)

	// Medications, timeline and summary
	authed.Handle("/medications", patient(http.HandlerFunc(healthHandler.ListMedications))).Methods(http.MethodGet)
	authed.Handle("/medications/{id}/toggle", patient(http.HandlerFunc(healthHandler.ToggleMedication))).Methods(http.MethodPatch)
	authed.Handle("/medications/{id}", patient(http.HandlerFunc(healthHandler.DeleteMedication))).Methods(http.MethodDelete)
	authed.HandleFunc("/timeline", healthHandler.Timeline).Methods(http.MethodGet)
	authed.Handle("/health-summary", patient(http.HandlerFunc(healthHandler.HealthSummary))).Methods(http.MethodPost)

	return r
}
