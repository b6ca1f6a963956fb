package crm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

func TestSyncService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the repository", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		name := "Deal"
		patch := crm.OpportunityPatch{OpportunityID: "opp-1", Name: &name}
		repo.On("Upsert", mock.Anything, patch).
			Return(&crm.Opportunity{OpportunityID: "opp-1", Name: "Deal"}, nil)

		svc := NewSyncService(repo, zap.NewNop())
		opp, err := svc.Upsert(ctx, patch)
		require.NoError(t, err)
		assert.Equal(t, "Deal", opp.Name)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		svc := NewSyncService(repo, zap.NewNop())
		_, err := svc.Upsert(ctx, crm.OpportunityPatch{OpportunityID: "opp-1"})
		assert.Error(t, err)
	})
}

func TestSyncService_UpdateStage(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps upsert with only stage-relevant fields", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		stage := "stage-3"
		status := "open"
		ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(p crm.OpportunityPatch) bool {
			return p.OpportunityID == "opp-1" &&
				p.PipelineStageID != nil && *p.PipelineStageID == "stage-3" &&
				p.Status != nil && *p.Status == "open" &&
				p.UpdatedAt != nil && p.UpdatedAt.Equal(ts) &&
				p.Name == nil && p.MonetaryValue == nil
		})).Return(&crm.Opportunity{OpportunityID: "opp-1"}, nil)

		svc := NewSyncService(repo, zap.NewNop())
		_, err := svc.UpdateStage(ctx, "opp-1", &stage, &status, &ts)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestSyncService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the repository", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("DeleteByOpportunityID", mock.Anything, "opp-1").Return(nil)

		svc := NewSyncService(repo, zap.NewNop())
		assert.NoError(t, svc.Delete(ctx, "opp-1"))
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("DeleteByOpportunityID", mock.Anything, "opp-1").Return(assert.AnError)

		svc := NewSyncService(repo, zap.NewNop())
		assert.Error(t, svc.Delete(ctx, "opp-1"))
	})
}
