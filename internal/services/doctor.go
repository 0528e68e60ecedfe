package services

import (
	"context"
	"slices"
	"strings"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/samber/lo"
)

func newestFirst(a, b *models.SharedReport) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

func (s *assignmentService) ListForPatient(ctx context.Context, actor models.Actor) ([]*models.SharedReport, error) {
	list, err := s.store.SharedReports.ListByPatient(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to list shared reports", "error", err, "patient_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to list shared reports")
	}
	slices.SortFunc(list, newestFirst)
	return list, nil
}

// DoctorPatients lists the patients who approved the doctor, each with their
// live, visible relationships.
func (s *assignmentService) DoctorPatients(ctx context.Context, actor models.Actor) ([]models.DoctorPatient, error) {
	approved, err := s.store.SharedReports.ListByDoctorEmail(ctx, actor.Email, models.ApprovalApproved)
	if err != nil {
		s.logger.Error("Failed to list doctor patients", "error", err, "doctor_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to list patients")
	}

	now := s.now()
	visible := lo.Filter(approved, func(sr *models.SharedReport, _ int) bool {
		return sr.VisibleToDoctor(now)
	})

	byPatient := lo.GroupBy(visible, func(sr *models.SharedReport) string { return sr.PatientID })

	out := make([]models.DoctorPatient, 0, len(byPatient))
	for patientID, reports := range byPatient {
		patient, err := s.store.Users.GetByID(ctx, patientID)
		if err != nil {
			s.logger.Error("Failed to load patient", "error", err, "patient_id", patientID)
			return nil, utils.NewInternalError("Failed to list patients")
		}
		if patient == nil {
			continue
		}
		slices.SortFunc(reports, newestFirst)
		out = append(out, models.DoctorPatient{Patient: patient.PatientPublic(), SharedReports: reports})
	}

	slices.SortFunc(out, func(a, b models.DoctorPatient) int {
		return strings.Compare(strings.ToLower(a.Patient.Name), strings.ToLower(b.Patient.Name))
	})
	return out, nil
}

func (s *assignmentService) PendingApprovals(ctx context.Context, actor models.Actor) ([]*models.SharedReport, error) {
	pending, err := s.store.SharedReports.ListByDoctorEmail(ctx, actor.Email, models.ApprovalPending)
	if err != nil {
		s.logger.Error("Failed to list pending approvals", "error", err, "doctor_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to list pending approvals")
	}

	now := s.now()
	pending = lo.Filter(pending, func(sr *models.SharedReport, _ int) bool { return sr.Live(now) })
	slices.SortFunc(pending, newestFirst)
	return pending, nil
}

// ViewSharedReport opens one approved relationship and counts the view.
func (s *assignmentService) ViewSharedReport(ctx context.Context, actor models.Actor, id string) (*models.SharedReportDetail, error) {
	sr, err := s.doctorSharedReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.SharedReports.IncrementViews(ctx, sr.ID); err != nil {
		s.logger.Warn("Failed to count shared report view", "error", err, "shared_report_id", sr.ID)
	} else {
		sr.ViewCount++
	}

	detail := &models.SharedReportDetail{SharedReport: sr}

	report, err := s.store.Reports.GetByID(ctx, sr.ReportID)
	if err != nil {
		s.logger.Error("Failed to load report", "error", err, "report_id", sr.ReportID)
		return nil, utils.NewInternalError("Failed to load report")
	}
	detail.Report = report

	patient, err := s.store.Users.GetByID(ctx, sr.PatientID)
	if err != nil {
		s.logger.Error("Failed to load patient", "error", err, "patient_id", sr.PatientID)
		return nil, utils.NewInternalError("Failed to load patient")
	}
	if patient != nil {
		detail.Patient = patient.PatientPublic()
	}

	return detail, nil
}

func (s *assignmentService) CompleteTreatment(ctx context.Context, actor models.Actor, id string) (*models.SharedReport, error) {
	sr, err := s.doctorSharedReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SharedReports.UpdateTreatment(ctx, sr.ID, models.TreatmentCompleted); err != nil {
		return nil, s.updateError(err, sr.ID)
	}
	return s.getSharedReport(ctx, sr.ID)
}

func (s *assignmentService) HideFromDashboard(ctx context.Context, actor models.Actor, id string) (*models.SharedReport, error) {
	sr, err := s.doctorSharedReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SharedReports.SetHidden(ctx, sr.ID, true); err != nil {
		return nil, s.updateError(err, sr.ID)
	}
	return s.getSharedReport(ctx, sr.ID)
}

// doctorSharedReport loads a relationship the acting doctor may act on: it
// must be theirs, approved by the patient, and not expired.
func (s *assignmentService) doctorSharedReport(ctx context.Context, actor models.Actor, id string) (*models.SharedReport, error) {
	sr, err := s.getSharedReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sameEmail(sr.DoctorEmail, actor.Email) {
		return nil, utils.NewForbiddenError("This patient is not assigned to you")
	}
	if sr.ApprovalStatus != models.ApprovalApproved {
		return nil, utils.NewForbiddenError("The patient has not approved this assignment yet")
	}
	if !sr.Live(s.now()) {
		return nil, utils.NewForbiddenError("This shared report has expired")
	}
	return sr, nil
}

func (s *assignmentService) updateError(err error, id string) error {
	if err == repository.ErrNotFound {
		return utils.NewNotFoundError("Shared report not found")
	}
	s.logger.Error("Failed to update shared report", "error", err, "shared_report_id", id)
	return utils.NewInternalError("Failed to update shared report")
}
