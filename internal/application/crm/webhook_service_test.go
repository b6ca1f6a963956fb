package crm

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

func newWebhookService(repo *MockOpportunityRepository, dedupe *MockIdempotencyStore) *WebhookService {
	log := zap.NewNop()
	normalizer := NewNormalizer(repo, true, log)
	syncSvc := NewSyncService(repo, log)

	if dedupe == nil {
		return NewWebhookService(normalizer, syncSvc, nil, time.Hour, log)
	}
	return NewWebhookService(normalizer, syncSvc, dedupe, time.Hour, log)
}

func TestWebhookService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("empty body is rejected", func(t *testing.T) {
		svc := newWebhookService(new(MockOpportunityRepository), nil)

		_, err := svc.Process(ctx, []byte(""))
		assert.ErrorIs(t, err, crm.ErrEmptyWebhookBody)

		_, err = svc.Process(ctx, []byte("   \n"))
		assert.ErrorIs(t, err, crm.ErrEmptyWebhookBody)
	})

	t.Run("empty JSON object is rejected without store writes", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		svc := newWebhookService(repo, nil)

		_, err := svc.Process(ctx, []byte("{}"))
		assert.ErrorIs(t, err, crm.ErrEmptyWebhookBody)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "ExistsByOpportunityID", mock.Anything, mock.Anything)
	})

	t.Run("malformed JSON is acknowledged as contact-only", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		svc := newWebhookService(repo, nil)

		result, err := svc.Process(ctx, []byte("not json at all"))
		require.NoError(t, err)
		assert.Equal(t, crm.EventKindContactOnly, result.EventType)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("contact-only payload is acknowledged without writes", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		svc := newWebhookService(repo, nil)

		result, err := svc.Process(ctx, []byte(`{"contact_id": "c-1"}`))
		require.NoError(t, err)
		assert.Equal(t, crm.EventKindContactOnly, result.EventType)
		assert.Empty(t, result.OpportunityID)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("new opportunity is upserted as created", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-1").Return(false, nil)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(p crm.OpportunityPatch) bool {
			return p.OpportunityID == "opp-1" && p.Name != nil && *p.Name == "New deal"
		})).Return(&crm.Opportunity{OpportunityID: "opp-1", Name: "New deal"}, nil)
		svc := newWebhookService(repo, nil)

		result, err := svc.Process(ctx, []byte(`{"id": "opp-1", "name": "New deal"}`))
		require.NoError(t, err)

		assert.Equal(t, crm.EventKindCreated, result.EventType)
		assert.Equal(t, "opp-1", result.OpportunityID)
		assert.False(t, result.Timestamp.IsZero())
		repo.AssertExpectations(t)
	})

	t.Run("delete event removes the record", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-2").Return(true, nil)
		repo.On("DeleteByOpportunityID", mock.Anything, "opp-2").Return(nil)
		svc := newWebhookService(repo, nil)

		result, err := svc.Process(ctx, []byte(`{"type": "OpportunityDelete", "id": "opp-2"}`))
		require.NoError(t, err)

		assert.Equal(t, crm.EventKindDeleted, result.EventType)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("stage change keeps every supplied field in the write", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-3").Return(true, nil)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(p crm.OpportunityPatch) bool {
			return p.OpportunityID == "opp-3" &&
				p.PipelineStageID != nil && *p.PipelineStageID == "stage-9" &&
				p.Name != nil && *p.Name == "renamed deal" &&
				p.MonetaryValue != nil && p.MonetaryValue.Equal(decimal.NewFromInt(999))
		})).Return(&crm.Opportunity{OpportunityID: "opp-3"}, nil)
		svc := newWebhookService(repo, nil)

		result, err := svc.Process(ctx,
			[]byte(`{"id": "opp-3", "pipeline_stage_id": "stage-9", "name": "renamed deal", "monetary_value": 999}`))
		require.NoError(t, err)

		assert.Equal(t, crm.EventKindStageChanged, result.EventType)
		repo.AssertExpectations(t)
	})

	t.Run("store failure surfaces as an error", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-4").Return(false, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(nil, assert.AnError)
		svc := newWebhookService(repo, nil)

		_, err := svc.Process(ctx, []byte(`{"id": "opp-4", "name": "doomed"}`))
		assert.Error(t, err)
	})
}

func TestWebhookService_Dedupe(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate delivery is acknowledged without re-processing", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-1").Return(true, nil)
		dedupe := new(MockIdempotencyStore)
		dedupe.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(false, nil)
		svc := newWebhookService(repo, dedupe)

		result, err := svc.Process(ctx,
			[]byte(`{"id": "opp-1", "name": "n", "updated_at": "2026-08-30T12:00:00Z"}`))
		require.NoError(t, err)

		assert.Equal(t, "opp-1", result.OpportunityID)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("dedupe store failure degrades to normal processing", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-1").Return(false, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).
			Return(&crm.Opportunity{OpportunityID: "opp-1"}, nil)
		dedupe := new(MockIdempotencyStore)
		dedupe.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(false, assert.AnError)
		svc := newWebhookService(repo, dedupe)

		result, err := svc.Process(ctx,
			[]byte(`{"id": "opp-1", "name": "n", "updated_at": "2026-08-30T12:00:00Z"}`))
		require.NoError(t, err)

		assert.Equal(t, crm.EventKindCreated, result.EventType)
		repo.AssertCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("deliveries without a timestamp are not deduplicated", func(t *testing.T) {
		repo := new(MockOpportunityRepository)
		repo.On("ExistsByOpportunityID", mock.Anything, "opp-1").Return(false, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).
			Return(&crm.Opportunity{OpportunityID: "opp-1"}, nil)
		dedupe := new(MockIdempotencyStore)
		svc := newWebhookService(repo, dedupe)

		_, err := svc.Process(ctx, []byte(`{"id": "opp-1", "name": "n"}`))
		require.NoError(t, err)

		dedupe.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})
}
