package crm

import (
	"context"

	"github.com/shopspring/decimal"
)

// OpportunityCreate describes an outbound opportunity-creation request.
// Pipeline placement is supplied by the adapter's configuration when the
// fields are left empty.
type OpportunityCreate struct {
	Name          string
	Status        string
	MonetaryValue decimal.Decimal
	ContactID     string
}

// PlatformOpportunity is the platform's view of an opportunity it created.
// The local store is only materialized later by the webhook the creation
// triggers, never by this response directly.
type PlatformOpportunity struct {
	ID              string
	Name            string
	Status          string
	PipelineID      string
	PipelineStageID string
	MonetaryValue   decimal.Decimal
}

// PipelineStage is a single stage of a platform sales pipeline. Stage
// semantics are opaque; only the identifier and display name are carried.
type PipelineStage struct {
	ID       string
	Name     string
	Position int
}

// Platform is the port interface for the external pipeline/opportunity
// platform. It is defined in the domain layer; the concrete HTTP adapter
// lives in the infrastructure layer.
type Platform interface {
	// CreateOpportunity creates a new opportunity in the configured pipeline.
	CreateOpportunity(ctx context.Context, req OpportunityCreate) (*PlatformOpportunity, error)

	// GetPipelineStage retrieves a single stage of a pipeline.
	GetPipelineStage(ctx context.Context, pipelineID, stageID string) (*PipelineStage, error)
}
