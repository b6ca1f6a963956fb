package persistence

import (
	"context"
	"errors"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuthCredentialRepository implements crm.AuthCredentialRepository using GORM
type GormAuthCredentialRepository struct {
	db *gorm.DB
}

// NewGormAuthCredentialRepository creates a new GormAuthCredentialRepository
func NewGormAuthCredentialRepository(db *gorm.DB) *GormAuthCredentialRepository {
	return &GormAuthCredentialRepository{db: db}
}

// Save stores the credential for a location, replacing any prior row.
// The row is keyed by location id so each location holds exactly one
// credential at a time.
func (r *GormAuthCredentialRepository) Save(ctx context.Context, cred *crm.AuthCredential) error {
	model := models.AuthCredentialModelFromDomain(cred)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByLocationID finds the stored credential for a location
func (r *GormAuthCredentialRepository) FindByLocationID(ctx context.Context, locationID string) (*crm.AuthCredential, error) {
	var model models.AuthCredentialModel
	if err := r.db.WithContext(ctx).First(&model, "location_id = ?", locationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crm.ErrNoCredential
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormAuthCredentialRepository implements the repository interface
var _ crm.AuthCredentialRepository = (*GormAuthCredentialRepository)(nil)
