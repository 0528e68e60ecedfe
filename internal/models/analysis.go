package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type FindingStatus string

const (
	FindingNormal     FindingStatus = "normal"
	FindingAbnormal   FindingStatus = "abnormal"
	FindingBorderline FindingStatus = "borderline"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type KeyFinding struct {
	Parameter   string        `json:"parameter" bson:"parameter"`
	Value       string        `json:"value" bson:"value"`
	NormalRange string        `json:"normalRange" bson:"normalRange"`
	Status      FindingStatus `json:"status" bson:"status"`
	Explanation string        `json:"explanation" bson:"explanation"`
}

type MedicalAnalysis struct {
	KeyFindings     []KeyFinding `json:"keyFindings" bson:"keyFindings"`
	Summary         string       `json:"summary" bson:"summary"`
	Recommendations []string     `json:"recommendations" bson:"recommendations"`
	RiskLevel       RiskLevel    `json:"riskLevel" bson:"riskLevel"`
	NextSteps       []string     `json:"nextSteps" bson:"nextSteps"`
}

// Validate checks the enum fields of a model-produced analysis.
func (a *MedicalAnalysis) Validate() error {
	switch a.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("invalid riskLevel %q", a.RiskLevel)
	}
	for _, f := range a.KeyFindings {
		switch f.Status {
		case FindingNormal, FindingAbnormal, FindingBorderline:
		default:
			return fmt.Errorf("invalid status %q for parameter %q", f.Status, f.Parameter)
		}
	}
	return nil
}

type MedicationInfo struct {
	Name         string `json:"name" bson:"name"`
	Dosage       string `json:"dosage" bson:"dosage"`
	Frequency    string `json:"frequency" bson:"frequency"`
	Instructions string `json:"instructions" bson:"instructions"`
	SideEffects  string `json:"sideEffects" bson:"sideEffects"`
}

type AnalysisKind string

const (
	AnalysisClinical     AnalysisKind = "clinical"
	AnalysisPrescription AnalysisKind = "prescription"
	AnalysisDiagnostic   AnalysisKind = "diagnostic"
)

type PrescriptionAnalysis struct {
	Medications []MedicationInfo `json:"medications" bson:"medications"`
	Saved       int              `json:"saved" bson:"saved"`
}

// ContentDiagnostic explains why a report could not be analyzed.
type ContentDiagnostic struct {
	Reason       string   `json:"reason" bson:"reason"`
	LikelyCauses []string `json:"likelyCauses" bson:"likelyCauses"`
	Remediation  []string `json:"remediation" bson:"remediation"`
}

// ExtractedData is the analyzer output stored on a report. Exactly one of the
// payload fields is set, selected by Kind.
type ExtractedData struct {
	Kind         AnalysisKind          `json:"kind" bson:"kind"`
	Clinical     *MedicalAnalysis      `json:"clinical,omitempty" bson:"clinical,omitempty"`
	Prescription *PrescriptionAnalysis `json:"prescription,omitempty" bson:"prescription,omitempty"`
	Diagnostic   *ContentDiagnostic    `json:"diagnostic,omitempty" bson:"diagnostic,omitempty"`
}

func NewClinicalData(a *MedicalAnalysis) *ExtractedData {
	return &ExtractedData{Kind: AnalysisClinical, Clinical: a}
}

func NewPrescriptionData(p *PrescriptionAnalysis) *ExtractedData {
	return &ExtractedData{Kind: AnalysisPrescription, Prescription: p}
}

func NewDiagnosticData(d *ContentDiagnostic) *ExtractedData {
	return &ExtractedData{Kind: AnalysisDiagnostic, Diagnostic: d}
}

func (d *ExtractedData) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *ExtractedData) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into ExtractedData", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, d)
}
