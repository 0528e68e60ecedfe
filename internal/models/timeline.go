package models

import "time"

type TimelineEventType string

const (
	EventUploadedReport TimelineEventType = "uploaded_report"
	EventPrescription   TimelineEventType = "prescription"
	EventScan           TimelineEventType = "scan"
	EventConsultation   TimelineEventType = "consultation"
	EventMetricReading  TimelineEventType = "metric_reading"
)

type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "Low"
	SeverityModerate SeverityLevel = "Moderate"
	SeverityCritical SeverityLevel = "Critical"
)

// EventTypeFor maps a report type onto the timeline event it produces.
func EventTypeFor(t ReportType) TimelineEventType {
	switch {
	case t == ReportTypePrescription:
		return EventPrescription
	case t.IsScan():
		return EventScan
	default:
		return EventUploadedReport
	}
}

// SeverityFor derives a scan severity from an analysis risk level.
func SeverityFor(r RiskLevel) SeverityLevel {
	switch r {
	case RiskHigh:
		return SeverityCritical
	case RiskMedium:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

type DoctorInfo struct {
	DoctorID       string `json:"doctorId" bson:"doctorId"`
	Name           string `json:"name" bson:"name"`
	Specialization string `json:"specialization" bson:"specialization"`
}

type ComparisonData struct {
	PreviousReportID string             `json:"previousReportId" bson:"previousReportId"`
	Changes          map[string]float64 `json:"changes" bson:"changes"`
}

// TimelineEntry is an immutable projection of one clinical event.
type TimelineEntry struct {
	ID             string             `json:"id" db:"id" bson:"_id"`
	UserID         string             `json:"userId" db:"user_id" bson:"userId"`
	ReportID       *string            `json:"reportId,omitempty" db:"report_id" bson:"reportId,omitempty"`
	ConsultationID *string            `json:"consultationId,omitempty" db:"consultation_id" bson:"consultationId,omitempty"`
	EventDate      time.Time          `json:"eventDate" db:"event_date" bson:"eventDate"`
	EventType      TimelineEventType  `json:"eventType" db:"event_type" bson:"eventType"`
	Title          string             `json:"title" db:"title" bson:"title"`
	Description    string             `json:"description" db:"description" bson:"description"`
	Analysis       *MedicalAnalysis   `json:"analysis,omitempty" db:"-" bson:"analysis,omitempty"`
	Medications    []MedicationInfo   `json:"medications,omitempty" db:"-" bson:"medications,omitempty"`
	Metrics        map[string]string  `json:"metrics,omitempty" db:"-" bson:"metrics,omitempty"`
	RiskLevel      *RiskLevel         `json:"riskLevel,omitempty" db:"risk_level" bson:"riskLevel,omitempty"`
	SeverityLevel  *SeverityLevel     `json:"severityLevel,omitempty" db:"severity_level" bson:"severityLevel,omitempty"`
	Comparison     *ComparisonData    `json:"comparison,omitempty" db:"-" bson:"comparison,omitempty"`
	DoctorInfo     *DoctorInfo        `json:"doctorInfo,omitempty" db:"-" bson:"doctorInfo,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" db:"created_at" bson:"createdAt"`
}
