package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/jmoiron/sqlx"
)

type timelineRepository struct {
	db *sqlx.DB
}

// timelinePayload holds the embedded snapshots stored in the payload column.
type timelinePayload struct {
	Analysis    *models.MedicalAnalysis `json:"analysis,omitempty"`
	Medications []models.MedicationInfo `json:"medications,omitempty"`
	Metrics     map[string]string       `json:"metrics,omitempty"`
	Comparison  *models.ComparisonData  `json:"comparison,omitempty"`
	DoctorInfo  *models.DoctorInfo      `json:"doctorInfo,omitempty"`
}

type timelineRow struct {
	ID             string                `db:"id"`
	UserID         string                `db:"user_id"`
	ReportID       *string               `db:"report_id"`
	ConsultationID *string               `db:"consultation_id"`
	EventDate      time.Time             `db:"event_date"`
	EventType      string                `db:"event_type"`
	Title          string                `db:"title"`
	Description    string                `db:"description"`
	RiskLevel      *models.RiskLevel     `db:"risk_level"`
	SeverityLevel  *models.SeverityLevel `db:"severity_level"`
	Payload        string                `db:"payload"`
	CreatedAt      time.Time             `db:"created_at"`
}

func (r *timelineRepository) Create(ctx context.Context, entry *models.TimelineEntry) error {
	payload, err := json.Marshal(timelinePayload{
		Analysis:    entry.Analysis,
		Medications: entry.Medications,
		Metrics:     entry.Metrics,
		Comparison:  entry.Comparison,
		DoctorInfo:  entry.DoctorInfo,
	})
	if err != nil {
		return fmt.Errorf("marshal timeline payload: %w", err)
	}

	row := timelineRow{
		ID:             entry.ID,
		UserID:         entry.UserID,
		ReportID:       entry.ReportID,
		ConsultationID: entry.ConsultationID,
		EventDate:      entry.EventDate,
		EventType:      string(entry.EventType),
		Title:          entry.Title,
		Description:    entry.Description,
		RiskLevel:      entry.RiskLevel,
		SeverityLevel:  entry.SeverityLevel,
		Payload:        string(payload),
		CreatedAt:      entry.CreatedAt,
	}

	query := `
		INSERT INTO health_timeline (id, user_id, report_id, consultation_id, event_date, event_type,
			title, description, risk_level, severity_level, payload, created_at)
		VALUES (:id, :user_id, :report_id, :consultation_id, :event_date, :event_type,
			:title, :description, :risk_level, :severity_level, :payload, :created_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, row)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *timelineRepository) ListByUser(ctx context.Context, userID string) ([]*models.TimelineEntry, error) {
	var rows []timelineRow

	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, report_id, consultation_id, event_date, event_type, title, description,
			risk_level, severity_level, payload, created_at
		FROM health_timeline
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.TimelineEntry, 0, len(rows))
	for _, row := range rows {
		var payload timelinePayload
		if row.Payload != "" {
			if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
				return nil, fmt.Errorf("decode timeline payload %s: %w", row.ID, err)
			}
		}
		entries = append(entries, &models.TimelineEntry{
			ID:             row.ID,
			UserID:         row.UserID,
			ReportID:       row.ReportID,
			ConsultationID: row.ConsultationID,
			EventDate:      row.EventDate,
			EventType:      models.TimelineEventType(row.EventType),
			Title:          row.Title,
			Description:    row.Description,
			Analysis:       payload.Analysis,
			Medications:    payload.Medications,
			Metrics:        payload.Metrics,
			RiskLevel:      row.RiskLevel,
			SeverityLevel:  row.SeverityLevel,
			Comparison:     payload.Comparison,
			DoctorInfo:     payload.DoctorInfo,
			CreatedAt:      row.CreatedAt,
		})
	}

	return entries, nil
}
