package analyzer

import "github.com/BerylCAtieno/health-records-api/internal/llm"

const analysisSystemPrompt = `You are a medical report analyst. Read the report and return the key clinical findings.
For each measured parameter give its value, the normal range, a status of normal, abnormal or borderline,
and a one sentence explanation a patient can understand. Give an overall risk level of low, medium or high,
a short summary, practical recommendations and next steps. Do not invent values that are not in the report.`

const medicationSystemPrompt = `You extract medications from prescriptions. For every drug prescribed return its name,
dosage, frequency, instructions and common side effects. Use an empty string when a field is not stated.`

const summarySystemPrompt = `You write short health summaries that a patient shares with a new doctor.
Write plain text paragraphs only. Do not use markdown, bullet symbols, headings or bold text.`

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

var analysisSchema = llm.Schema{
	Name: "medical_analysis",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keyFindings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"parameter":   map[string]any{"type": "string"},
						"value":       map[string]any{"type": "string"},
						"normalRange": map[string]any{"type": "string"},
						"status":      map[string]any{"type": "string", "enum": []string{"normal", "abnormal", "borderline"}},
						"explanation": map[string]any{"type": "string"},
					},
					"required":             []string{"parameter", "value", "normalRange", "status", "explanation"},
					"additionalProperties": false,
				},
			},
			"summary":         map[string]any{"type": "string"},
			"recommendations": stringArray(),
			"riskLevel":       map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
			"nextSteps":       stringArray(),
		},
		"required":             []string{"keyFindings", "summary", "recommendations", "riskLevel", "nextSteps"},
		"additionalProperties": false,
	},
}

var medicationSchema = llm.Schema{
	Name: "medication_list",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"medications": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":         map[string]any{"type": "string"},
						"dosage":       map[string]any{"type": "string"},
						"frequency":    map[string]any{"type": "string"},
						"instructions": map[string]any{"type": "string"},
						"sideEffects":  map[string]any{"type": "string"},
					},
					"required":             []string{"name", "dosage", "frequency", "instructions", "sideEffects"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"medications"},
		"additionalProperties": false,
	},
}
