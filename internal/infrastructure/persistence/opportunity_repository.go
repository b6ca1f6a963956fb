package persistence

import (
	"context"
	"errors"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOpportunityRepository implements crm.OpportunityRepository using GORM
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GormOpportunityRepository
func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// FindByOpportunityID finds an opportunity by its platform-assigned identifier
func (r *GormOpportunityRepository) FindByOpportunityID(ctx context.Context, opportunityID string) (*crm.Opportunity, error) {
	var model models.OpportunityModel
	if err := r.db.WithContext(ctx).First(&model, "opportunity_id = ?", opportunityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crm.ErrOpportunityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByOpportunityID reports whether an opportunity with the given platform
// identifier is present without loading the full record
func (r *GormOpportunityRepository) ExistsByOpportunityID(ctx context.Context, opportunityID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OpportunityModel{}).
		Where("opportunity_id = ?", opportunityID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Upsert inserts a new opportunity from the patch or merges the patch's
// supplied fields over the existing record. The read-merge-write runs in a
// transaction so concurrent deliveries for the same opportunity serialize
// on the unique index.
func (r *GormOpportunityRepository) Upsert(ctx context.Context, patch crm.OpportunityPatch) (*crm.Opportunity, error) {
	if patch.OpportunityID == "" {
		return nil, crm.ErrNoOpportunityIdentity
	}

	var result *crm.Opportunity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.OpportunityModel
		err := tx.First(&model, "opportunity_id = ?", patch.OpportunityID).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			opp := crm.NewOpportunityFromPatch(patch)
			newModel := models.OpportunityModelFromDomain(opp)
			if createErr := tx.Create(newModel).Error; createErr != nil {
				return createErr
			}
			result = newModel.ToDomain()
			return nil

		case err != nil:
			return err
		}

		opp := model.ToDomain()
		opp.Apply(patch)
		model.FromDomain(opp)
		if saveErr := tx.Save(&model).Error; saveErr != nil {
			return saveErr
		}
		result = model.ToDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByOpportunityID removes the record. Deleting an absent record is a
// no-op, not an error.
func (r *GormOpportunityRepository) DeleteByOpportunityID(ctx context.Context, opportunityID string) error {
	return r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Delete(&models.OpportunityModel{}).Error
}

// Ensure GormOpportunityRepository implements the repository interface
var _ crm.OpportunityRepository = (*GormOpportunityRepository)(nil)
