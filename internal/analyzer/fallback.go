package analyzer

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/samber/lo"
)

func nonEmptyLines(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})
}

// FallbackAnalysis describes text without a model.
func FallbackAnalysis(text string) *models.MedicalAnalysis {
	lines := len(nonEmptyLines(text))

	return &models.MedicalAnalysis{
		KeyFindings: []models.KeyFinding{
			{
				Parameter:   "Document processed",
				Value:       fmt.Sprintf("%d lines of text", lines),
				NormalRange: "N/A",
				Status:      models.FindingNormal,
				Explanation: "The document text was extracted and stored. Automated analysis is not available for it.",
			},
		},
		Summary: fmt.Sprintf("Medical document processed with %d lines of extracted text. Please review the results with your healthcare provider.", lines),
		Recommendations: []string{
			"Consult your healthcare provider to interpret these results",
			"Keep this report with your medical records for future reference",
		},
		RiskLevel: models.RiskLow,
		NextSteps: []string{"Share this report with your doctor at your next visit"},
	}
}

// FallbackMedications treats every line that does not mention the doctor or
// patient as a medication name.
func FallbackMedications(text string) []models.MedicationInfo {
	return lo.FilterMap(nonEmptyLines(text), func(line string, _ int) (models.MedicationInfo, bool) {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "doctor") || strings.Contains(lower, "patient") {
			return models.MedicationInfo{}, false
		}
		return models.MedicationInfo{
			Name:         line,
			Frequency:    string(models.FrequencyAsNeeded),
			Instructions: "Follow your doctor's instructions",
		}, true
	})
}
