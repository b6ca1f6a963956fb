package crm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

// SyncService applies normalized opportunity events to the persistent store.
// All operations are idempotent and keyed by the external opportunity id;
// concurrent deliveries for the same id resolve to last-write-wins. An older
// delivery arriving after a newer one can overwrite fresher data; the
// provider supplies no ordering token, so this is an accepted limitation.
type SyncService struct {
	opportunities crm.OpportunityRepository
	log           *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(opportunities crm.OpportunityRepository, log *zap.Logger) *SyncService {
	return &SyncService{
		opportunities: opportunities,
		log:           log.Named("opportunity-sync"),
	}
}

// Upsert inserts the record if absent, else merges the patch's supplied
// fields over the existing one.
func (s *SyncService) Upsert(ctx context.Context, patch crm.OpportunityPatch) (*crm.Opportunity, error) {
	opp, err := s.opportunities.Upsert(ctx, patch)
	if err != nil {
		s.log.Error("Opportunity upsert failed",
			zap.String("opportunity_id", patch.OpportunityID),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("Opportunity synchronized",
		zap.String("opportunity_id", opp.OpportunityID),
		zap.String("status", opp.Status),
		zap.String("pipeline_stage_id", opp.PipelineStageID))
	return opp, nil
}

// Delete removes the record. Deleting an absent record is a no-op.
func (s *SyncService) Delete(ctx context.Context, opportunityID string) error {
	if err := s.opportunities.DeleteByOpportunityID(ctx, opportunityID); err != nil {
		s.log.Error("Opportunity delete failed",
			zap.String("opportunity_id", opportunityID),
			zap.Error(err))
		return err
	}

	s.log.Info("Opportunity deleted", zap.String("opportunity_id", opportunityID))
	return nil
}

// UpdateStage is a named convenience over Upsert carrying only the
// stage-relevant fields.
func (s *SyncService) UpdateStage(ctx context.Context, opportunityID string, pipelineStageID, status *string, updatedAt *time.Time) (*crm.Opportunity, error) {
	return s.Upsert(ctx, crm.StagePatch(opportunityID, pipelineStageID, status, updatedAt))
}
