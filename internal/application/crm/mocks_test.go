package crm

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/devmatch/backend/internal/domain/crm"
)

// MockOpportunityRepository is a mock implementation of crm.OpportunityRepository
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) FindByOpportunityID(ctx context.Context, opportunityID string) (*crm.Opportunity, error) {
	args := m.Called(ctx, opportunityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) ExistsByOpportunityID(ctx context.Context, opportunityID string) (bool, error) {
	args := m.Called(ctx, opportunityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOpportunityRepository) Upsert(ctx context.Context, patch crm.OpportunityPatch) (*crm.Opportunity, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) DeleteByOpportunityID(ctx context.Context, opportunityID string) error {
	args := m.Called(ctx, opportunityID)
	return args.Error(0)
}

// MockJobDraftRepository is a mock implementation of crm.JobDraftRepository
type MockJobDraftRepository struct {
	mock.Mock
}

func (m *MockJobDraftRepository) Save(ctx context.Context, draft *crm.JobDraft) error {
	args := m.Called(ctx, draft)
	return args.Error(0)
}

func (m *MockJobDraftRepository) FindByID(ctx context.Context, id string) (*crm.JobDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.JobDraft), args.Error(1)
}

// MockPlatform is a mock implementation of crm.Platform
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) CreateOpportunity(ctx context.Context, req crm.OpportunityCreate) (*crm.PlatformOpportunity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.PlatformOpportunity), args.Error(1)
}

func (m *MockPlatform) GetPipelineStage(ctx context.Context, pipelineID, stageID string) (*crm.PipelineStage, error) {
	args := m.Called(ctx, pipelineID, stageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.PipelineStage), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
