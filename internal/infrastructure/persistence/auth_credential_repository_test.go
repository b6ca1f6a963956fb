package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthCredentialTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.AuthCredentialModel{})
	require.NoError(t, err)

	return db
}

func TestGormAuthCredentialRepository_Save(t *testing.T) {
	db := setupAuthCredentialTestDB(t)
	repo := NewGormAuthCredentialRepository(db)
	ctx := context.Background()

	t.Run("stores a new credential", func(t *testing.T) {
		now := time.Now().UTC()
		cred := &crm.AuthCredential{
			LocationID:   "loc-1",
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    now.Add(24 * time.Hour),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		require.NoError(t, repo.Save(ctx, cred))

		found, err := repo.FindByLocationID(ctx, "loc-1")
		require.NoError(t, err)
		assert.Equal(t, "access-1", found.AccessToken)
		assert.Equal(t, "refresh-1", found.RefreshToken)
	})

	t.Run("replaces the credential for the same location", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.Save(ctx, &crm.AuthCredential{
			LocationID:  "loc-2",
			AccessToken: "old-access",
			CreatedAt:   now,
			UpdatedAt:   now,
		}))
		require.NoError(t, repo.Save(ctx, &crm.AuthCredential{
			LocationID:   "loc-2",
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			CreatedAt:    now,
			UpdatedAt:    now.Add(time.Minute),
		}))

		found, err := repo.FindByLocationID(ctx, "loc-2")
		require.NoError(t, err)
		assert.Equal(t, "new-access", found.AccessToken)
		assert.Equal(t, "new-refresh", found.RefreshToken)

		var count int64
		require.NoError(t, db.Model(&models.AuthCredentialModel{}).
			Where("location_id = ?", "loc-2").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormAuthCredentialRepository_FindByLocationID(t *testing.T) {
	db := setupAuthCredentialTestDB(t)
	repo := NewGormAuthCredentialRepository(db)
	ctx := context.Background()

	t.Run("returns ErrNoCredential for unknown location", func(t *testing.T) {
		_, err := repo.FindByLocationID(ctx, "loc-unknown")
		assert.ErrorIs(t, err, crm.ErrNoCredential)
	})
}
