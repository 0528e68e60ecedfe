package models

import (
	"fmt"
	"time"
)

type ReportStatus string

const (
	StatusProcessing ReportStatus = "processing"
	StatusCompleted  ReportStatus = "completed"
	StatusFailed     ReportStatus = "failed"
)

// CanTransition reports whether a report may move from s to next.
// Only processing->completed and processing->failed are allowed.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	return s == StatusProcessing && (next == StatusCompleted || next == StatusFailed)
}

type ReportType string

const (
	ReportTypeBloodTest    ReportType = "blood_test"
	ReportTypePrescription ReportType = "prescription"
	ReportTypeXRay         ReportType = "x_ray"
	ReportTypeGeneral      ReportType = "general"
)

// IsScan reports whether the document is an imaging study.
func (t ReportType) IsScan() bool {
	return t == ReportTypeXRay
}

type Report struct {
	ID            string         `json:"id" db:"id" bson:"_id"`
	PatientID     string         `json:"patientId" db:"patient_id" bson:"patientId"`
	FileName      string         `json:"fileName" db:"file_name" bson:"fileName"`
	FileURL       string         `json:"fileUrl" db:"file_url" bson:"fileUrl"`
	FileKey       string         `json:"-" db:"file_key" bson:"fileKey"`
	ContentType   string         `json:"contentType" db:"content_type" bson:"contentType"`
	ReportType    ReportType     `json:"reportType" db:"report_type" bson:"reportType"`
	OriginalText  *string        `json:"originalText" db:"original_text" bson:"originalText"`
	ExtractedData *ExtractedData `json:"extractedData,omitempty" db:"extracted_data" bson:"extractedData,omitempty"`
	Summary       *string        `json:"summary,omitempty" db:"summary" bson:"summary,omitempty"`
	Status        ReportStatus   `json:"status" db:"status" bson:"status"`
	UploadedAt    time.Time      `json:"uploadedAt" db:"uploaded_at" bson:"uploadedAt"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// Text returns the extracted text, or "" while extraction is pending.
func (r *Report) Text() string {
	if r.OriginalText == nil {
		return ""
	}
	return *r.OriginalText
}

// ReportOutcome is the terminal write the ingestion pipeline makes for a report.
type ReportOutcome struct {
	Status        ReportStatus
	Summary       string
	ExtractedData *ExtractedData
}

func (o ReportOutcome) Validate() error {
	if !StatusProcessing.CanTransition(o.Status) {
		return fmt.Errorf("invalid terminal status %q", o.Status)
	}
	return nil
}

type UploadRequest struct {
	PatientID   string
	File        []byte
	Filename    string
	ContentType string
}

type UploadResponse struct {
	ReportID string       `json:"reportId"`
	FileName string       `json:"fileName"`
	FileURL  string       `json:"fileUrl"`
	Status   ReportStatus `json:"status"`
	Message  string       `json:"message"`
}
