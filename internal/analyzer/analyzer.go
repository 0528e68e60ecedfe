// Package analyzer turns extracted report text into structured medical data.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BerylCAtieno/health-records-api/internal/llm"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/samber/lo"
)

// maxPromptText keeps prompts inside the model's context budget.
const maxPromptText = 6000

type MedicalAnalyzer struct {
	llm    llm.Completer
	logger *utils.Logger
}

func NewMedicalAnalyzer(completer llm.Completer, logger *utils.Logger) *MedicalAnalyzer {
	if completer == nil {
		completer = llm.Unconfigured{}
	}
	return &MedicalAnalyzer{llm: completer, logger: logger}
}

// Analyze produces clinical findings for text. When the model is unavailable
// or its output is unusable the deterministic fallback is returned instead.
func (a *MedicalAnalyzer) Analyze(ctx context.Context, text string) *models.MedicalAnalysis {
	analysis, err := a.analyzeWithModel(ctx, text)
	if err != nil {
		a.logFallback("analysis", err)
		return FallbackAnalysis(text)
	}
	return analysis
}

func (a *MedicalAnalyzer) analyzeWithModel(ctx context.Context, text string) (*models.MedicalAnalysis, error) {
	content, err := a.llm.Complete(ctx, llm.Request{
		System: analysisSystemPrompt,
		User:   fmt.Sprintf("Analyze this medical report:\n\n%s", truncate(text)),
		Schema: &analysisSchema,
	})
	if err != nil {
		return nil, err
	}

	var analysis models.MedicalAnalysis
	if err := llm.DecodeJSON(content, &analysis); err != nil {
		a.logger.Error("Failed to parse LLM analysis", "content", content)
		return nil, err
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}
	return &analysis, nil
}

// ExtractMedications lists the medications named in a prescription. It falls
// back to a line heuristic when the model cannot be used.
func (a *MedicalAnalyzer) ExtractMedications(ctx context.Context, text string) []models.MedicationInfo {
	meds, err := a.medicationsWithModel(ctx, text)
	if err != nil {
		a.logFallback("medication extraction", err)
		return FallbackMedications(text)
	}
	return meds
}

type medicationList struct {
	Medications []models.MedicationInfo `json:"medications"`
}

func (a *MedicalAnalyzer) medicationsWithModel(ctx context.Context, text string) ([]models.MedicationInfo, error) {
	content, err := a.llm.Complete(ctx, llm.Request{
		System: medicationSystemPrompt,
		User:   fmt.Sprintf("Extract the medications from this prescription:\n\n%s", truncate(text)),
		Schema: &medicationSchema,
	})
	if err != nil {
		return nil, err
	}

	var list medicationList
	if err := llm.DecodeJSON(content, &list); err != nil {
		a.logger.Error("Failed to parse LLM medications", "content", content)
		return nil, err
	}

	return lo.Filter(list.Medications, func(m models.MedicationInfo, _ int) bool {
		return strings.TrimSpace(m.Name) != ""
	}), nil
}

// unconfiguredSummary is returned by GenerateHealthSummary without a model.
const unconfiguredSummary = "AI health summary is not available right now. Please share your reports and medication list with your doctor directly."

// GenerateHealthSummary writes a plain-text narrative of a patient's records
// for sharing with a doctor.
func (a *MedicalAnalyzer) GenerateHealthSummary(ctx context.Context, reports []models.Report, medications []models.Medication) (string, error) {
	if !llm.IsConfigured(a.llm) {
		return unconfiguredSummary, nil
	}

	content, err := a.llm.Complete(ctx, llm.Request{
		System:    summarySystemPrompt,
		User:      summaryPrompt(reports, medications),
		MaxTokens: 800,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate health summary: %w", err)
	}

	return StripMarkdown(content), nil
}

func summaryPrompt(reports []models.Report, medications []models.Medication) string {
	var b strings.Builder
	b.WriteString("Write a concise health summary for a doctor based on these records.\n\nReports:\n")
	if len(reports) == 0 {
		b.WriteString("- none\n")
	}
	for _, r := range reports {
		summary := "no summary"
		if r.Summary != nil && *r.Summary != "" {
			summary = *r.Summary
		}
		fmt.Fprintf(&b, "- %s (%s, %s): %s\n", r.FileName, r.ReportType, r.UploadedAt.Format("2006-01-02"), summary)
	}

	b.WriteString("\nActive medications:\n")
	if len(medications) == 0 {
		b.WriteString("- none\n")
	}
	for _, m := range medications {
		fmt.Fprintf(&b, "- %s %s, %s\n", m.Name, m.Dosage, m.Frequency)
	}
	return truncate(b.String())
}

func (a *MedicalAnalyzer) logFallback(stage string, err error) {
	if errors.Is(err, llm.ErrUnconfigured) {
		a.logger.Debug("AI model not configured, using fallback", "stage", stage)
		return
	}
	a.logger.Warn("AI call failed, using fallback", "stage", stage, "error", err)
}

func truncate(text string) string {
	if len(text) > maxPromptText {
		n := maxPromptText
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		return text[:n] + "..."
	}
	return text
}
