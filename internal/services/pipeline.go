package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/classifier"
	"github.com/BerylCAtieno/health-records-api/internal/extractor"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/samber/lo"
)

const analysisFallbackSummary = "Report processed. Automated analysis could not be completed; please consult a healthcare provider to review it."

// startPipeline runs extraction and analysis in the background. The request
// context is detached so the pipeline outlives the HTTP response.
func (s *reportService) startPipeline(ctx context.Context, report *models.Report, data []byte) {
	ctx = context.WithoutCancel(ctx)

	s.pipelines.Add(1)
	go func() {
		defer s.pipelines.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Report pipeline panicked",
					"report_id", report.ID,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()

		s.process(ctx, report, data)
	}()
}

func (s *reportService) process(ctx context.Context, report *models.Report, data []byte) {
	start := time.Now()
	log := s.logger.With("report_id", report.ID, "patient_id", report.PatientID)

	text, extractErr := s.extractor.Extract(ctx, data, report.ContentType)
	extractionFailed := extractErr != nil
	reportType := models.ReportTypeGeneral
	if extractionFailed {
		text = extractErr.Error()
	} else {
		reportType = classifier.Classify(text)
	}

	if err := s.store.Reports.UpdateExtraction(ctx, report.ID, text, reportType); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("Report deleted during processing, stopping pipeline")
			return
		}
		log.Error("Failed to save extracted text", "error", err)
	}

	var outcome models.ReportOutcome
	switch {
	case extractionFailed:
		outcome = models.ReportOutcome{
			Status:        models.StatusFailed,
			Summary:       extractionFailureSummary(extractErr),
			ExtractedData: models.NewDiagnosticData(extractionDiagnostic(extractErr)),
		}
	case !extractor.HasSufficientContent(text):
		diag := insufficientContentDiagnostic()
		outcome = models.ReportOutcome{
			Status:        models.StatusCompleted,
			Summary:       diagnosticSummary(diag),
			ExtractedData: models.NewDiagnosticData(diag),
		}
	default:
		outcome = s.analyzeSafely(ctx, log, report, text, reportType)
	}

	if err := s.store.Reports.Finish(ctx, report.ID, outcome); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Info("Report deleted during processing, dropping result")
		case errors.Is(err, repository.ErrStaleState):
			log.Warn("Report already finished, dropping result", "error", err)
		default:
			log.Error("Failed to save report outcome", "error", err)
		}
		return
	}

	log.Info("Report processed",
		"status", outcome.Status,
		"report_type", reportType,
		"characters", len(text),
		"duration_ms", time.Since(start).Milliseconds())

	if extractionFailed {
		return
	}

	entry := timelineEntryFor(report, reportType, outcome)
	if err := s.store.Timeline.Create(ctx, entry); err != nil {
		log.Error("Failed to create timeline entry", "error", err)
	}
}

// analyzeSafely runs the analysis stage. A panic anywhere in it degrades to
// the generic summary; the report still completes.
func (s *reportService) analyzeSafely(ctx context.Context, log *utils.Logger, report *models.Report, text string, reportType models.ReportType) (outcome models.ReportOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Report analysis panicked", "panic", r)
			outcome = models.ReportOutcome{Status: models.StatusCompleted, Summary: analysisFallbackSummary}
		}
	}()

	if reportType == models.ReportTypePrescription {
		meds := s.analyzer.ExtractMedications(ctx, text)
		saved := s.saveMedications(ctx, log, report, meds)
		return models.ReportOutcome{
			Status:        models.StatusCompleted,
			Summary:       prescriptionSummary(meds),
			ExtractedData: models.NewPrescriptionData(&models.PrescriptionAnalysis{Medications: meds, Saved: saved}),
		}
	}

	analysis := s.analyzer.Analyze(ctx, text)
	if analysis == nil {
		return models.ReportOutcome{Status: models.StatusCompleted, Summary: analysisFallbackSummary}
	}
	return models.ReportOutcome{
		Status:        models.StatusCompleted,
		Summary:       analysis.Summary,
		ExtractedData: models.NewClinicalData(analysis),
	}
}

// saveMedications stores one row per item and skips items that fail.
func (s *reportService) saveMedications(ctx context.Context, log *utils.Logger, report *models.Report, meds []models.MedicationInfo) int {
	saved := 0
	prescribed := report.UploadedAt
	for _, info := range meds {
		now := utils.Now()
		med := &models.Medication{
			ID:               utils.GenerateID(),
			PatientID:        report.PatientID,
			ReportID:         lo.ToPtr(report.ID),
			Name:             strings.TrimSpace(info.Name),
			Dosage:           info.Dosage,
			Frequency:        models.NormalizeFrequency(info.Frequency),
			Instructions:     info.Instructions,
			SideEffects:      info.SideEffects,
			IsActive:         true,
			PrescriptionDate: &prescribed,
			StartDate:        &prescribed,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.store.Medications.Create(ctx, med); err != nil {
			log.Warn("Failed to save medication", "error", err, "name", med.Name)
			continue
		}
		saved++
	}
	return saved
}

func prescriptionSummary(meds []models.MedicationInfo) string {
	if len(meds) == 0 {
		return "Prescription processed. No medications could be identified; please check the document with your pharmacist."
	}
	names := lo.Map(meds, func(m models.MedicationInfo, _ int) string { return m.Name })
	return fmt.Sprintf("Prescription processed with %d medication(s): %s.", len(meds), strings.Join(names, ", "))
}

func extractionDiagnostic(err error) *models.ContentDiagnostic {
	reason := "The file could not be read."
	if errors.Is(err, extractor.ErrExtractionTimeout) {
		reason = "Reading the file took too long and was stopped."
	}
	return &models.ContentDiagnostic{
		Reason: reason,
		LikelyCauses: []string{
			"The file is damaged or password protected",
			"The image is very large or has an unusual format",
		},
		Remediation: []string{
			"Export or scan the document again as a PDF, JPEG or PNG",
			"Upload a smaller, clearer copy of the document",
		},
	}
}

func extractionFailureSummary(err error) string {
	return diagnosticSummary(extractionDiagnostic(err))
}

func insufficientContentDiagnostic() *models.ContentDiagnostic {
	return &models.ContentDiagnostic{
		Reason: "We could not extract readable text from this document.",
		LikelyCauses: []string{
			"Low image resolution or a blurry photo",
			"Handwritten text",
			"Glare, shadows or a cropped page",
		},
		Remediation: []string{
			"Retake the photo in good, even lighting",
			"Hold the camera flat above the page so all text is in frame",
			"Upload the original digital PDF if you have one",
		},
	}
}

func diagnosticSummary(d *models.ContentDiagnostic) string {
	var b strings.Builder
	b.WriteString(d.Reason)
	b.WriteString("\n\nLikely causes:\n")
	for _, c := range d.LikelyCauses {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nWhat you can do:\n")
	for _, r := range d.Remediation {
		b.WriteString("- " + r + "\n")
	}
	return strings.TrimSpace(b.String())
}

// metricKey lower-cases a finding parameter and joins its words with
// underscores: "Blood Pressure" becomes "blood_pressure".
func metricKey(parameter string) string {
	return strings.Join(strings.Fields(strings.ToLower(parameter)), "_")
}

var reportTitles = map[models.ReportType]string{
	models.ReportTypeBloodTest:    "Blood test results",
	models.ReportTypePrescription: "Prescription",
	models.ReportTypeXRay:         "Imaging scan",
	models.ReportTypeGeneral:      "Medical report",
}

func timelineEntryFor(report *models.Report, reportType models.ReportType, outcome models.ReportOutcome) *models.TimelineEntry {
	entry := &models.TimelineEntry{
		ID:          utils.GenerateID(),
		UserID:      report.PatientID,
		ReportID:    lo.ToPtr(report.ID),
		EventDate:   report.UploadedAt,
		EventType:   models.EventTypeFor(reportType),
		Title:       fmt.Sprintf("%s: %s", reportTitles[reportType], report.FileName),
		Description: outcome.Summary,
		CreatedAt:   utils.Now(),
	}

	data := outcome.ExtractedData
	if data == nil {
		return entry
	}

	if data.Clinical != nil {
		analysis := data.Clinical
		entry.Analysis = analysis
		entry.RiskLevel = lo.ToPtr(analysis.RiskLevel)
		if len(analysis.KeyFindings) > 0 {
			entry.Metrics = make(map[string]string, len(analysis.KeyFindings))
			for _, f := range analysis.KeyFindings {
				if key := metricKey(f.Parameter); key != "" {
					entry.Metrics[key] = f.Value
				}
			}
		}
		if reportType.IsScan() {
			entry.SeverityLevel = lo.ToPtr(models.SeverityFor(analysis.RiskLevel))
		}
	}

	if data.Prescription != nil {
		entry.Medications = data.Prescription.Medications
	}

	return entry
}
