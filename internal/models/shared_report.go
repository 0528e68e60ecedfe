package models

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected is part of the schema but nothing transitions into it yet.
	ApprovalRejected ApprovalStatus = "rejected"
)

type TreatmentStatus string

const (
	TreatmentActive    TreatmentStatus = "active"
	TreatmentCompleted TreatmentStatus = "completed"
	// TreatmentDiscontinued is part of the schema but nothing transitions into it yet.
	TreatmentDiscontinued TreatmentStatus = "discontinued"
)

// SharedReport is the patient-doctor relationship created for one uploaded report.
type SharedReport struct {
	ID                     string          `json:"id" db:"id" bson:"_id"`
	PatientID              string          `json:"patientId" db:"patient_id" bson:"patientId"`
	DoctorID               string          `json:"doctorId" db:"doctor_id" bson:"doctorId"`
	DoctorEmail            string          `json:"doctorEmail" db:"doctor_email" bson:"doctorEmail"`
	ReportID               string          `json:"reportId" db:"report_id" bson:"reportId"`
	ReportURL              string          `json:"reportUrl" db:"report_url" bson:"reportUrl"`
	DetectedSpecialization string          `json:"detectedSpecialization" db:"detected_specialization" bson:"detectedSpecialization"`
	ReportSummary          string          `json:"reportSummary" db:"report_summary" bson:"reportSummary"`
	ShareToken             string          `json:"shareToken" db:"share_token" bson:"shareToken"`
	ExpiresAt              time.Time       `json:"expiresAt" db:"expires_at" bson:"expiresAt"`
	IsActive               bool            `json:"isActive" db:"is_active" bson:"isActive"`
	ApprovalStatus         ApprovalStatus  `json:"approvalStatus" db:"approval_status" bson:"approvalStatus"`
	TreatmentStatus        TreatmentStatus `json:"treatmentStatus" db:"treatment_status" bson:"treatmentStatus"`
	HideFromDashboard      bool            `json:"hideFromDashboard" db:"hide_from_dashboard" bson:"hideFromDashboard"`
	ViewCount              int             `json:"viewCount" db:"view_count" bson:"viewCount"`
	CreatedAt              time.Time       `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// Live reports whether the relationship is active and not past its expiry.
// Expiry is a hard cutoff regardless of IsActive.
func (s *SharedReport) Live(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// VisibleToDoctor reports whether the doctor's patient list should include s.
func (s *SharedReport) VisibleToDoctor(now time.Time) bool {
	return s.ApprovalStatus == ApprovalApproved && s.Live(now) && !s.HideFromDashboard
}

type AssignDoctorRequest struct {
	PatientID string `json:"patientId"`
	ReportID  string `json:"reportId"`
	ReportURL string `json:"reportURL"`
}

type DoctorPublic struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

type AIDetection struct {
	Specialization string  `json:"specialization"`
	Confidence     float64 `json:"confidence"`
}

type AssignDoctorResponse struct {
	SharedReportID  string         `json:"sharedReportId"`
	SuggestedDoctor DoctorPublic   `json:"suggestedDoctor"`
	AIDetection     AIDetection    `json:"aiDetection"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	AlreadyAssigned bool           `json:"alreadyAssigned"`
}

type PatientPublic struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DoctorPatient groups the approved relationships a doctor has with one patient.
type DoctorPatient struct {
	Patient       PatientPublic   `json:"patient"`
	SharedReports []*SharedReport `json:"sharedReports"`
}

// SharedReportDetail is what a doctor sees when opening one relationship.
type SharedReportDetail struct {
	SharedReport *SharedReport `json:"sharedReport"`
	Report       *Report       `json:"report,omitempty"`
	Patient      PatientPublic `json:"patient"`
}
