package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/health-records-api/internal/llm"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

const DefaultSpecialization = "General Physician"

// Specializations is the fixed taxonomy doctors are routed by.
var Specializations = []string{
	"Cardiologist",
	"Dermatologist",
	"Orthopedic",
	"Neurologist",
	"Gastroenterologist",
	"Pulmonologist",
	"Endocrinologist",
	"Ophthalmologist",
	"ENT Specialist",
	DefaultSpecialization,
}

const (
	confidenceExact   = 0.9
	confidencePartial = 0.7
	confidenceDefault = 0.3
)

type SpecializationMatch struct {
	Specialization string
	Confidence     float64
}

type SpecializationMatcher struct {
	llm    llm.Completer
	logger *utils.Logger
}

func NewSpecializationMatcher(completer llm.Completer, logger *utils.Logger) *SpecializationMatcher {
	if completer == nil {
		completer = llm.Unconfigured{}
	}
	return &SpecializationMatcher{llm: completer, logger: logger}
}

// Match picks the specialization best suited to the report. It never fails:
// empty input, model errors and unrecognized answers all resolve to
// DefaultSpecialization.
func (m *SpecializationMatcher) Match(ctx context.Context, reportText string) SpecializationMatch {
	if strings.TrimSpace(reportText) == "" {
		return SpecializationMatch{Specialization: DefaultSpecialization, Confidence: confidenceDefault}
	}

	content, err := m.llm.Complete(ctx, llm.Request{
		System:    "You are a medical triage assistant. Answer with the specialization name only.",
		User:      matchPrompt(reportText),
		MaxTokens: 20,
	})
	if err != nil {
		m.logger.Warn("Specialization detection failed, using default", "error", err)
		return SpecializationMatch{Specialization: DefaultSpecialization, Confidence: confidenceDefault}
	}

	match := ResolveSpecialization(content)
	m.logger.Info("Specialization detected",
		"response", content,
		"specialization", match.Specialization,
		"confidence", match.Confidence,
	)
	return match
}

func matchPrompt(reportText string) string {
	return fmt.Sprintf(`Based on this medical report, which ONE of these specializations should the patient see?

%s

Report:
%s

Respond with exactly one specialization name from the list.`, strings.Join(Specializations, ", "), truncate(reportText))
}

// ResolveSpecialization maps a free-form model answer onto the taxonomy: an
// exact match first, then a match inside a longer answer.
func ResolveSpecialization(response string) SpecializationMatch {
	answer := strings.ToLower(strings.Trim(strings.TrimSpace(response), ".\"'`*"))
	if answer == "" {
		return SpecializationMatch{Specialization: DefaultSpecialization, Confidence: confidenceDefault}
	}

	for _, s := range Specializations {
		if strings.ToLower(s) == answer {
			return SpecializationMatch{Specialization: s, Confidence: confidenceExact}
		}
	}

	for _, s := range Specializations {
		if strings.Contains(answer, strings.ToLower(s)) {
			return SpecializationMatch{Specialization: s, Confidence: confidencePartial}
		}
	}

	// Short answers such as "ENT" or "General".
	for _, s := range Specializations {
		first, _, _ := strings.Cut(strings.ToLower(s), " ")
		if answer == first {
			return SpecializationMatch{Specialization: s, Confidence: confidencePartial}
		}
	}

	return SpecializationMatch{Specialization: DefaultSpecialization, Confidence: confidenceDefault}
}
