// Package classifier tags extracted report text with a document type using
// keyword rules. Rules are checked in order and the first match wins.
package classifier

import (
	"regexp"

	"github.com/BerylCAtieno/health-records-api/internal/models"
)

type rule struct {
	reportType models.ReportType
	pattern    *regexp.Regexp
}

var rules = []rule{
	{
		reportType: models.ReportTypePrescription,
		pattern: regexp.MustCompile(`(?i)\b(prescription|prescribed|rx|tablets?|capsules?|syrup|dosage|` +
			`once daily|twice daily|thrice daily|three times a day|before meals|after meals|` +
			`bid|tid|qid)\b`),
	},
	{
		reportType: models.ReportTypeBloodTest,
		pattern: regexp.MustCompile(`(?i)\b(blood|hemoglobin|haemoglobin|cholesterol|glucose|platelets?|` +
			`wbc|rbc|hba1c|creatinine|triglycerides?|lipid|cbc|serum|hematocrit|bilirubin|thyroid|tsh)\b`),
	},
	{
		reportType: models.ReportTypeXRay,
		pattern: regexp.MustCompile(`(?i)(\bx[\s-]?ray\b|\bmri\b|\bct scan\b|\bradiograph|` +
			`\bultrasound\b|\bsonograph|\bimaging\b|\bmammogra)`),
	},
}

// Classify returns the document type for text. It is pure and never fails;
// text that matches no rule is general.
func Classify(text string) models.ReportType {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.reportType
		}
	}
	return models.ReportTypeGeneral
}
