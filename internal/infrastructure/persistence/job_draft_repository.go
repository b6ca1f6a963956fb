package persistence

import (
	"context"
	"errors"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJobDraftRepository implements crm.JobDraftRepository using GORM
type GormJobDraftRepository struct {
	db *gorm.DB
}

// NewGormJobDraftRepository creates a new GormJobDraftRepository
func NewGormJobDraftRepository(db *gorm.DB) *GormJobDraftRepository {
	return &GormJobDraftRepository{db: db}
}

// Save persists a job draft
func (r *GormJobDraftRepository) Save(ctx context.Context, draft *crm.JobDraft) error {
	model := models.JobDraftModelFromDomain(draft)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a job draft by its identifier
func (r *GormJobDraftRepository) FindByID(ctx context.Context, id string) (*crm.JobDraft, error) {
	draftID, err := uuid.Parse(id)
	if err != nil {
		return nil, crm.ErrJobDraftNotFound
	}

	var model models.JobDraftModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crm.ErrJobDraftNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormJobDraftRepository implements the repository interface
var _ crm.JobDraftRepository = (*GormJobDraftRepository)(nil)
