package crm

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

// defaultTaskTimeout bounds each background side effect of a publish.
const defaultTaskTimeout = 30 * time.Second

// OutboundService publishes locally authored job drafts. Publish assigns
// identity and returns at once; the store persist and the platform
// opportunity creation then run as independent background tasks whose
// failures are logged in isolation. A draft can therefore exist in storage
// with no matching platform opportunity, or vice versa, until a human or a
// reconciliation job intervenes. The draft and the opportunity share no key;
// they are related only by name attribution.
type OutboundService struct {
	drafts      crm.JobDraftRepository
	platform    crm.Platform
	log         *zap.Logger
	taskTimeout time.Duration
	wg          sync.WaitGroup
}

// NewOutboundService creates a new OutboundService
func NewOutboundService(drafts crm.JobDraftRepository, platform crm.Platform, log *zap.Logger) *OutboundService {
	return &OutboundService{
		drafts:      drafts,
		platform:    platform,
		log:         log.Named("outbound"),
		taskTimeout: defaultTaskTimeout,
	}
}

// Publish accepts a draft, assigns identity and creation time, and launches
// the best-effort dual write in the background. The returned draft is what
// the caller acknowledges; neither side effect is awaited.
func (s *OutboundService) Publish(draft crm.JobDraft) *crm.JobDraft {
	d := crm.NewJobDraft(draft)

	s.wg.Add(2)
	go s.persistDraft(d)
	go s.createOpportunity(d)

	return d
}

// Wait blocks until all in-flight background tasks finish. Used by the
// graceful shutdown path and by tests.
func (s *OutboundService) Wait() {
	s.wg.Wait()
}

// ValidatePipelineConfig looks up the configured pipeline stage once at
// startup and logs its display name. A failure is logged, not fatal; the
// outbound path stays available and individual creates fail on their own.
func (s *OutboundService) ValidatePipelineConfig(ctx context.Context, pipelineID, stageID string) {
	if pipelineID == "" || stageID == "" {
		s.log.Warn("Pipeline or stage id not configured, outbound opportunity placement will rely on platform defaults")
		return
	}

	stage, err := s.platform.GetPipelineStage(ctx, pipelineID, stageID)
	if err != nil {
		s.log.Warn("Configured pipeline stage could not be verified",
			zap.String("pipeline_id", pipelineID),
			zap.String("pipeline_stage_id", stageID),
			zap.Error(err))
		return
	}

	s.log.Info("Configured pipeline stage verified",
		zap.String("pipeline_id", pipelineID),
		zap.String("pipeline_stage_id", stage.ID),
		zap.String("stage_name", stage.Name))
}

func (s *OutboundService) persistDraft(d *crm.JobDraft) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
	defer cancel()

	if err := s.drafts.Save(ctx, d); err != nil {
		s.log.Error("Job draft persistence failed",
			zap.String("draft_id", d.ID.String()),
			zap.String("title", d.Title),
			zap.Error(err))
		return
	}

	s.log.Info("Job draft persisted",
		zap.String("draft_id", d.ID.String()),
		zap.String("title", d.Title))
}

func (s *OutboundService) createOpportunity(d *crm.JobDraft) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
	defer cancel()

	value, ok := d.BudgetValue()
	if !ok {
		value = decimal.Zero
	}

	opp, err := s.platform.CreateOpportunity(ctx, crm.OpportunityCreate{
		Name:          d.Title,
		MonetaryValue: value,
	})
	if err != nil {
		s.log.Error("Platform opportunity creation failed",
			zap.String("draft_id", d.ID.String()),
			zap.String("title", d.Title),
			zap.Error(err))
		return
	}

	s.log.Info("Platform opportunity created for draft",
		zap.String("draft_id", d.ID.String()),
		zap.String("opportunity_id", opp.ID),
		zap.String("title", d.Title))
}
