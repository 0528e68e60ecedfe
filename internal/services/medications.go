package services

import (
	"context"
	"slices"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"github.com/BerylCAtieno/health-records-api/internal/repository"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
)

type MedicationService interface {
	List(ctx context.Context, actor models.Actor) ([]*models.Medication, error)
	Toggle(ctx context.Context, actor models.Actor, id string) (*models.Medication, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type medicationService struct {
	store  *repository.Store
	logger *utils.Logger
}

func NewMedicationService(store *repository.Store, logger *utils.Logger) MedicationService {
	return &medicationService{store: store, logger: logger}
}

// List returns active medications first, newest first within each group.
func (s *medicationService) List(ctx context.Context, actor models.Actor) ([]*models.Medication, error) {
	meds, err := s.store.Medications.ListByPatient(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to list medications", "error", err, "patient_id", actor.UserID)
		return nil, utils.NewInternalError("Failed to list medications")
	}

	slices.SortFunc(meds, func(a, b *models.Medication) int {
		if a.IsActive != b.IsActive {
			if a.IsActive {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return meds, nil
}

func (s *medicationService) Toggle(ctx context.Context, actor models.Actor, id string) (*models.Medication, error) {
	med, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Medications.SetActive(ctx, id, !med.IsActive); err != nil {
		if err == repository.ErrNotFound {
			return nil, utils.NewNotFoundError("Medication not found")
		}
		s.logger.Error("Failed to toggle medication", "error", err, "medication_id", id)
		return nil, utils.NewInternalError("Failed to update medication")
	}

	med.IsActive = !med.IsActive
	return med, nil
}

func (s *medicationService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}

	if err := s.store.Medications.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return utils.NewNotFoundError("Medication not found")
		}
		s.logger.Error("Failed to delete medication", "error", err, "medication_id", id)
		return utils.NewInternalError("Failed to delete medication")
	}
	return nil
}

func (s *medicationService) owned(ctx context.Context, actor models.Actor, id string) (*models.Medication, error) {
	med, err := s.store.Medications.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load medication", "error", err, "medication_id", id)
		return nil, utils.NewInternalError("Failed to load medication")
	}
	if med == nil || med.PatientID != actor.UserID {
		return nil, utils.NewNotFoundError("Medication not found")
	}
	return med, nil
}
