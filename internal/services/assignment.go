package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/analyzer"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

// DefaultShareTTL is how long a shared report stays live.
const DefaultShareTTL = 90 * 24 * time.Hour

type SpecializationMatcher interface {
	Match(ctx context.Context, reportText string) analyzer.SpecializationMatch
}

type AssignmentService interface {
	AssignDoctor(ctx context.Context, actor models.Actor, req models.AssignDoctorRequest) (*models.AssignDoctorResponse, error)
	ApproveDoctor(ctx context.Context, actor models.Actor, sharedReportID string) (*models.SharedReport, error)
	ListForPatient(ctx context.Context, actor models.Actor) ([]*models.SharedReport, error)
	DoctorPatients(ctx context.Context, actor models.Actor) ([]models.DoctorPatient, error)
	PendingApprovals(ctx context.Context, actor models.Actor) ([]*models.SharedReport, error)
	ViewSharedReport(ctx context.Context, actor models.Actor, id string) (*models.SharedReportDetail, error)
	CompleteTreatment(ctx context.Context, actor models.Actor, id string) (*models.SharedReport, error)
	HideFromDashboard(ctx context.Context, actor models.Actor, id string) (*models.SharedReport, error)
	// ExpireStale deactivates relationships whose expiry has passed.
	ExpireStale(ctx context.Context) (int, error)
}

type assignmentService struct {
	store    *repository.Store
	matcher  SpecializationMatcher
	shareTTL time.Duration
	logger   *utils.Logger
	now      func() time.Time
}

func NewAssignmentService(store *repository.Store, matcher SpecializationMatcher, shareTTL time.Duration, logger *utils.Logger) AssignmentService {
	if shareTTL <= 0 {
		shareTTL = DefaultShareTTL
	}
	return &assignmentService{
		store:    store,
		matcher:  matcher,
		shareTTL: shareTTL,
		logger:   logger,
		now:      utils.Now,
	}
}

func (s *assignmentService) AssignDoctor(ctx context.Context, actor models.Actor, req models.AssignDoctorRequest) (*models.AssignDoctorResponse, error) {
	if req.PatientID == "" || req.ReportID == "" {
		return nil, utils.NewBadRequestError("patientId and reportId are required")
	}

	patient, err := s.store.Users.GetByID(ctx, req.PatientID)
	if err != nil {
		s.logger.Error("Failed to load patient", "error", err, "patient_id", req.PatientID)
		return nil, utils.NewInternalError("Failed to load patient")
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, utils.NewNotFoundError("Patient not found")
	}
	if actor.UserID != patient.ID {
		return nil, utils.NewForbiddenError("You can only request a doctor for your own reports")
	}

	existing, err := s.store.SharedReports.GetByPatientAndReport(ctx, patient.ID, req.ReportID)
	if err != nil {
		s.logger.Error("Failed to check existing assignment", "error", err, "report_id", req.ReportID)
		return nil, utils.NewInternalError("Failed to check existing assignment")
	}
	if existing != nil {
		s.logger.Info("Report already assigned, returning existing relationship",
			"shared_report_id", existing.ID, "report_id", req.ReportID)
		return s.existingAssignment(ctx, existing)
	}

	report, err := s.store.Reports.GetByID(ctx, req.ReportID)
	if err != nil {
		s.logger.Error("Failed to load report", "error", err, "report_id", req.ReportID)
		return nil, utils.NewInternalError("Failed to load report")
	}
	if report == nil || report.PatientID != patient.ID {
		return nil, utils.NewNotFoundError("Report not found")
	}
	text := report.Text()
	if report.Status == models.StatusFailed {
		return nil, utils.NewBadRequestError("Text could not be extracted from this report. Upload a clearer copy and try again").
			WithCause(ErrInsufficientReportText)
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewBadRequestError("Report text is not available yet. Wait for processing to finish and try again").
			WithCause(ErrInsufficientReportText)
	}

	match := s.matcher.Match(ctx, text)

	doctor, err := s.findDoctor(ctx, match.Specialization)
	if err != nil {
		return nil, err
	}

	reportURL := req.ReportURL
	if reportURL == "" {
		reportURL = report.FileURL
	}
	summary := ""
	if report.Summary != nil {
		summary = *report.Summary
	}

	now := s.now()
	sr := &models.SharedReport{
		ID:                     utils.GenerateID(),
		PatientID:              patient.ID,
		DoctorID:               doctor.ID,
		DoctorEmail:            doctor.Email,
		ReportID:               report.ID,
		ReportURL:              reportURL,
		DetectedSpecialization: match.Specialization,
		ReportSummary:          summary,
		ShareToken:             utils.GenerateShareToken(),
		ExpiresAt:              now.Add(s.shareTTL),
		IsActive:               true,
		ApprovalStatus:         models.ApprovalPending,
		TreatmentStatus:        models.TreatmentActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.store.SharedReports.Create(ctx, sr); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent request for the same report won the insert.
			winner, getErr := s.store.SharedReports.GetByPatientAndReport(ctx, patient.ID, report.ID)
			if getErr == nil && winner != nil {
				return s.existingAssignment(ctx, winner)
			}
		}
		s.logger.Error("Failed to create shared report", "error", err, "report_id", report.ID)
		return nil, utils.NewInternalError("Failed to assign doctor")
	}

	s.logger.Info("Doctor assigned",
		"shared_report_id", sr.ID,
		"patient_id", patient.ID,
		"doctor_id", doctor.ID,
		"specialization", match.Specialization,
		"doctor_specialization", doctor.Specialization)

	return &models.AssignDoctorResponse{
		SharedReportID:  sr.ID,
		SuggestedDoctor: doctor.DoctorPublic(),
		AIDetection: models.AIDetection{
			Specialization: match.Specialization,
			Confidence:     match.Confidence,
		},
		ApprovalStatus: sr.ApprovalStatus,
		ExpiresAt:      sr.ExpiresAt,
	}, nil
}

// findDoctor picks the first doctor with the specialization, retrying with
// the general physician list when there is none.
func (s *assignmentService) findDoctor(ctx context.Context, specialization string) (*models.User, error) {
	doctors, err := s.store.Users.FindDoctorsBySpecialization(ctx, specialization)
	if err != nil {
		s.logger.Error("Failed to look up doctors", "error", err, "specialization", specialization)
		return nil, utils.NewInternalError("Failed to look up doctors")
	}

	if len(doctors) == 0 && !strings.EqualFold(specialization, analyzer.DefaultSpecialization) {
		s.logger.Info("No doctor for specialization, falling back",
			"specialization", specialization, "fallback", analyzer.DefaultSpecialization)
		doctors, err = s.store.Users.FindDoctorsBySpecialization(ctx, analyzer.DefaultSpecialization)
		if err != nil {
			s.logger.Error("Failed to look up doctors", "error", err, "specialization", analyzer.DefaultSpecialization)
			return nil, utils.NewInternalError("Failed to look up doctors")
		}
	}

	if len(doctors) == 0 {
		return nil, utils.NewNotFoundError(fmt.Sprintf("No doctor available for specialization %s", specialization)).
			WithCause(ErrNoDoctorAvailable)
	}
	return doctors[0], nil
}

func (s *assignmentService) existingAssignment(ctx context.Context, sr *models.SharedReport) (*models.AssignDoctorResponse, error) {
	resp := &models.AssignDoctorResponse{
		SharedReportID: sr.ID,
		SuggestedDoctor: models.DoctorPublic{
			ID:    sr.DoctorID,
			Email: sr.DoctorEmail,
		},
		AIDetection:     models.AIDetection{Specialization: sr.DetectedSpecialization},
		ApprovalStatus:  sr.ApprovalStatus,
		ExpiresAt:       sr.ExpiresAt,
		AlreadyAssigned: true,
	}

	doctor, err := s.store.Users.GetByID(ctx, sr.DoctorID)
	if err != nil {
		s.logger.Warn("Failed to load assigned doctor", "error", err, "doctor_id", sr.DoctorID)
	}
	if doctor != nil {
		resp.SuggestedDoctor = doctor.DoctorPublic()
	}
	return resp, nil
}

func (s *assignmentService) ApproveDoctor(ctx context.Context, actor models.Actor, sharedReportID string) (*models.SharedReport, error) {
	sr, err := s.getSharedReport(ctx, sharedReportID)
	if err != nil {
		return nil, err
	}
	if sr.PatientID != actor.UserID {
		return nil, utils.NewForbiddenError("Only the patient can approve this doctor").WithCause(ErrUnauthorizedApproval)
	}
	if sr.ApprovalStatus == models.ApprovalApproved {
		return nil, utils.NewConflictError("Doctor has already been approved").WithCause(ErrAlreadyApproved)
	}
	if sr.ApprovalStatus != models.ApprovalPending {
		return nil, utils.NewConflictError(fmt.Sprintf("Assignment is %s and cannot be approved", sr.ApprovalStatus))
	}
	if !sr.Live(s.now()) {
		return nil, utils.NewBadRequestError("This shared report has expired")
	}

	err = s.store.SharedReports.UpdateApproval(ctx, sr.ID, models.ApprovalPending, models.ApprovalApproved)
	switch {
	case errors.Is(err, repository.ErrStaleState):
		return nil, utils.NewConflictError("Doctor has already been approved").WithCause(ErrAlreadyApproved)
	case errors.Is(err, repository.ErrNotFound):
		return nil, utils.NewNotFoundError("Shared report not found")
	case err != nil:
		s.logger.Error("Failed to approve doctor", "error", err, "shared_report_id", sr.ID)
		return nil, utils.NewInternalError("Failed to approve doctor")
	}

	s.logger.Info("Doctor approved", "shared_report_id", sr.ID, "patient_id", actor.UserID, "doctor_id", sr.DoctorID)
	return s.getSharedReport(ctx, sr.ID)
}

func (s *assignmentService) ExpireStale(ctx context.Context) (int, error) {
	n, err := s.store.SharedReports.DeactivateExpired(ctx, s.now())
	if err != nil {
		return n, fmt.Errorf("deactivate expired shared reports: %w", err)
	}
	return n, nil
}

func (s *assignmentService) getSharedReport(ctx context.Context, id string) (*models.SharedReport, error) {
	sr, err := s.store.SharedReports.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load shared report", "error", err, "shared_report_id", id)
		return nil, utils.NewInternalError("Failed to load shared report")
	}
	if sr == nil {
		return nil, utils.NewNotFoundError("Shared report not found")
	}
	return sr, nil
}

func sameEmail(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
