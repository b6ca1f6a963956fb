package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOpportunityTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.OpportunityModel{})
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string { return &s }

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestGormOpportunityRepository_Upsert(t *testing.T) {
	db := setupOpportunityTestDB(t)
	repo := NewGormOpportunityRepository(db)
	ctx := context.Background()

	t.Run("creates a new record from a patch", func(t *testing.T) {
		patch := crm.OpportunityPatch{
			OpportunityID:   "opp-create-1",
			Name:            strPtr("Booking system build"),
			Status:          strPtr("open"),
			MonetaryValue:   decPtr(decimal.NewFromInt(5000)),
			PipelineStageID: strPtr("stage-new"),
		}

		opp, err := repo.Upsert(ctx, patch)
		require.NoError(t, err)
		require.NotNil(t, opp)

		assert.Equal(t, "opp-create-1", opp.OpportunityID)
		assert.Equal(t, "Booking system build", opp.Name)
		assert.Equal(t, "open", opp.Status)
		assert.True(t, opp.MonetaryValue.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, "stage-new", opp.PipelineStageID)
		assert.NotEqual(t, "", opp.ID.String())
	})

	t.Run("merges only supplied fields over existing record", func(t *testing.T) {
		_, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-merge-1",
			Name:          strPtr("Initial name"),
			Status:        strPtr("open"),
			MonetaryValue: decPtr(decimal.NewFromInt(1000)),
			ContactID:     strPtr("contact-1"),
		})
		require.NoError(t, err)

		updated, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-merge-1",
			Status:        strPtr("won"),
		})
		require.NoError(t, err)

		assert.Equal(t, "won", updated.Status)
		assert.Equal(t, "Initial name", updated.Name, "absent fields must survive")
		assert.True(t, updated.MonetaryValue.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, "contact-1", updated.ContactID)
	})

	t.Run("does not duplicate records for repeated deliveries", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := repo.Upsert(ctx, crm.OpportunityPatch{
				OpportunityID: "opp-repeat-1",
				Name:          strPtr("Repeated"),
			})
			require.NoError(t, err)
		}

		var count int64
		require.NoError(t, db.Model(&models.OpportunityModel{}).
			Where("opportunity_id = ?", "opp-repeat-1").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("advances updated_at on every write", func(t *testing.T) {
		first, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-ts-1",
			Name:          strPtr("Timestamped"),
		})
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		second, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-ts-1",
			Status:        strPtr("open"),
		})
		require.NoError(t, err)

		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("rejects a patch without an opportunity id", func(t *testing.T) {
		_, err := repo.Upsert(ctx, crm.OpportunityPatch{Name: strPtr("No identity")})
		assert.ErrorIs(t, err, crm.ErrNoOpportunityIdentity)
	})
}

func TestGormOpportunityRepository_FindByOpportunityID(t *testing.T) {
	db := setupOpportunityTestDB(t)
	repo := NewGormOpportunityRepository(db)
	ctx := context.Background()

	t.Run("finds existing record", func(t *testing.T) {
		_, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-find-1",
			Name:          strPtr("Findable"),
		})
		require.NoError(t, err)

		opp, err := repo.FindByOpportunityID(ctx, "opp-find-1")
		require.NoError(t, err)
		assert.Equal(t, "Findable", opp.Name)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByOpportunityID(ctx, "opp-missing")
		assert.ErrorIs(t, err, crm.ErrOpportunityNotFound)
	})
}

func TestGormOpportunityRepository_ExistsByOpportunityID(t *testing.T) {
	db := setupOpportunityTestDB(t)
	repo := NewGormOpportunityRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, crm.OpportunityPatch{
		OpportunityID: "opp-exists-1",
		Name:          strPtr("Present"),
	})
	require.NoError(t, err)

	exists, err := repo.ExistsByOpportunityID(ctx, "opp-exists-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByOpportunityID(ctx, "opp-absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormOpportunityRepository_DeleteByOpportunityID(t *testing.T) {
	db := setupOpportunityTestDB(t)
	repo := NewGormOpportunityRepository(db)
	ctx := context.Background()

	t.Run("deletes existing record", func(t *testing.T) {
		_, err := repo.Upsert(ctx, crm.OpportunityPatch{
			OpportunityID: "opp-del-1",
			Name:          strPtr("Doomed"),
		})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByOpportunityID(ctx, "opp-del-1"))

		exists, err := repo.ExistsByOpportunityID(ctx, "opp-del-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("deleting an absent record is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.DeleteByOpportunityID(ctx, "opp-never-existed"))
	})
}
