package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BerylCAtieno/health-records-api/internal/extractor"
	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/storage"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

// TextExtractor converts uploaded file bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// ReportAnalyzer produces structured data from extracted text.
type ReportAnalyzer interface {
	Analyze(ctx context.Context, text string) *models.MedicalAnalysis
	ExtractMedications(ctx context.Context, text string) []models.MedicationInfo
	GenerateHealthSummary(ctx context.Context, reports []models.Report, medications []models.Medication) (string, error)
}

type ReportService interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	GetReport(ctx context.Context, actor models.Actor, id string) (*models.Report, error)
	ListReports(ctx context.Context, actor models.Actor) ([]*models.Report, error)
	DeleteReport(ctx context.Context, actor models.Actor, id string) error
	// Wait blocks until every background pipeline started so far has finished.
	Wait()
}

type reportService struct {
	store       *repository.Store
	storage     storage.Storage
	extractor   TextExtractor
	analyzer    ReportAnalyzer
	maxFileSize int64
	logger      *utils.Logger

	pipelines sync.WaitGroup
}

func NewReportService(
	store *repository.Store,
	blobs storage.Storage,
	textExtractor TextExtractor,
	reportAnalyzer ReportAnalyzer,
	maxFileSize int64,
	logger *utils.Logger,
) ReportService {
	return &reportService{
		store:       store,
		storage:     blobs,
		extractor:   textExtractor,
		analyzer:    reportAnalyzer,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (s *reportService) Upload(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if len(req.File) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}
	if s.maxFileSize > 0 && int64(len(req.File)) > s.maxFileSize {
		return nil, utils.NewBadRequestError(fmt.Sprintf("File size exceeds %dMB limit", s.maxFileSize>>20))
	}
	if !extractor.IsSupported(req.ContentType) {
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", req.Filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported file type '%s'. Only PDF, JPEG and PNG are allowed", req.ContentType))
	}

	reportID := utils.GenerateID()
	filename := filepath.Base(req.Filename)
	key := storage.ReportKey(req.PatientID, reportID, filename)

	fileURL, err := s.storage.Upload(ctx, key, req.File, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to upload report file", "error", err, "key", key)
		return nil, utils.NewInternalError("Failed to store report file")
	}

	now := utils.Now()
	report := &models.Report{
		ID:          reportID,
		PatientID:   req.PatientID,
		FileName:    filename,
		FileURL:     fileURL,
		FileKey:     key,
		ContentType: req.ContentType,
		ReportType:  models.ReportTypeGeneral,
		Status:      models.StatusProcessing,
		UploadedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Reports.Create(ctx, report); err != nil {
		s.logger.Error("Failed to save report", "error", err, "report_id", reportID)
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to clean up report file", "error", delErr, "key", key)
		}
		return nil, utils.NewInternalError("Failed to save report")
	}

	s.logger.Info("Report uploaded",
		"report_id", reportID,
		"patient_id", req.PatientID,
		"content_type", req.ContentType,
		"size", len(req.File))

	s.startPipeline(ctx, report, req.File)

	return &models.UploadResponse{
		ReportID: reportID,
		FileName: filename,
		FileURL:  fileURL,
		Status:   models.StatusProcessing,
		Message:  "Report uploaded. Text extraction and analysis are running in the background.",
	}, nil
}

func (s *reportService) GetReport(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	report, err := s.store.Reports.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load report", "error", err, "report_id", id)
		return nil, utils.NewInternalError("Failed to load report")
	}
	if report == nil {
		return nil, utils.NewNotFoundError("Report not found")
	}

	if report.PatientID == actor.UserID {
		return report, nil
	}
	if actor.IsDoctor() {
		sr, err := s.store.SharedReports.GetByPatientAndReport(ctx, report.PatientID, report.ID)
		if err != nil {
			return nil, utils.NewInternalError("Failed to load report")
		}
		if sr != nil && sameEmail(sr.DoctorEmail, actor.Email) && sr.ApprovalStatus == models.ApprovalApproved && sr.Live(utils.Now()) {
			return report, nil
		}
	}

	// Do not reveal reports that belong to someone else.
	return nil, utils.NewNotFoundError("Report not found")
}

func (s *reportService) ListReports(ctx context.Context, actor models.Actor) ([]*models.Report, error) {
	reports, err := s.store.Reports.ListByPatient(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err, "patient_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to list reports")
	}

	slices.SortFunc(reports, func(a, b *models.Report) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	return reports, nil
}

func (s *reportService) DeleteReport(ctx context.Context, actor models.Actor, id string) error {
	report, err := s.GetReport(ctx, actor, id)
	if err != nil {
		return err
	}
	if report.PatientID != actor.UserID {
		return utils.NewForbiddenError("Only the report owner can delete it")
	}

	if err := s.store.Reports.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return utils.NewNotFoundError("Report not found")
		}
		s.logger.Error("Failed to delete report", "error", err, "report_id", id)
		return utils.NewInternalError("Failed to delete report")
	}

	if report.FileKey != "" {
		if err := s.storage.Delete(ctx, report.FileKey); err != nil {
			s.logger.Warn("Failed to delete report file", "error", err, "key", report.FileKey)
		}
	}

	s.logger.Info("Report deleted", "report_id", id, "patient_id", actor.UserID)
	return nil
}

func (s *reportService) Wait() {
	s.pipelines.Wait()
}
