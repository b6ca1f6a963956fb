package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind classifies an inbound webhook event after normalization.
type EventKind string

const (
	EventKindCreated       EventKind = "created"
	EventKindUpdated       EventKind = "updated"
	EventKindStageChanged  EventKind = "stage_changed"
	EventKindStatusChanged EventKind = "status_changed"
	EventKindDeleted       EventKind = "deleted"
	// EventKindContactOnly marks a payload with no opportunity identity.
	// It is acknowledged without producing a record.
	EventKindContactOnly EventKind = "contact_only"
)

// IsWrite reports whether the event kind results in a store write.
func (k EventKind) IsWrite() bool {
	switch k {
	case EventKindCreated, EventKindUpdated, EventKindStageChanged, EventKindStatusChanged, EventKindDeleted:
		return true
	}
	return false
}

// Opportunity is the canonical local projection of a CRM sales-pipeline deal.
// OpportunityID is the CRM-side external id and the sole identity key: no two
// stored records share it and it never changes after creation.
type Opportunity struct {
	ID              uuid.UUID
	OpportunityID   string
	Name            string
	Status          string
	MonetaryValue   decimal.Decimal
	ContactID       string
	PipelineID      string
	PipelineStageID string
	AssignedTo      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OpportunityPatch is a partial update extracted from a webhook payload.
// Nil fields were absent from the payload and must not overwrite stored data.
type OpportunityPatch struct {
	OpportunityID   string
	Name            *string
	Status          *string
	MonetaryValue   *decimal.Decimal
	ContactID       *string
	PipelineID      *string
	PipelineStageID *string
	AssignedTo      *string
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// IsEmpty reports whether the patch carries no field values at all.
func (p OpportunityPatch) IsEmpty() bool {
	return p.Name == nil && p.Status == nil && p.MonetaryValue == nil &&
		p.ContactID == nil && p.PipelineID == nil && p.PipelineStageID == nil &&
		p.AssignedTo == nil && p.CreatedAt == nil && p.UpdatedAt == nil
}

// NewOpportunityFromPatch materializes a new record from a patch.
// Absent fields take zero values; timestamps default to now.
func NewOpportunityFromPatch(p OpportunityPatch) *Opportunity {
	now := time.Now().UTC()
	o := &Opportunity{
		ID:            uuid.New(),
		OpportunityID: p.OpportunityID,
		MonetaryValue: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.Apply(p)
	return o
}

// Apply merges the supplied fields of the patch over the record.
// UpdatedAt is always refreshed, even when the payload omitted it, so every
// successful write advances it monotonically.
func (o *Opportunity) Apply(p OpportunityPatch) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.MonetaryValue != nil {
		o.MonetaryValue = *p.MonetaryValue
	}
	if p.ContactID != nil {
		o.ContactID = *p.ContactID
	}
	if p.PipelineID != nil {
		o.PipelineID = *p.PipelineID
	}
	if p.PipelineStageID != nil {
		o.PipelineStageID = *p.PipelineStageID
	}
	if p.AssignedTo != nil {
		o.AssignedTo = *p.AssignedTo
	}
	if p.CreatedAt != nil {
		o.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil && p.UpdatedAt.After(o.UpdatedAt) {
		o.UpdatedAt = *p.UpdatedAt
	} else {
		o.UpdatedAt = time.Now().UTC()
	}
}

// StagePatch builds a patch carrying only the stage-relevant fields.
func StagePatch(opportunityID string, pipelineStageID, status *string, updatedAt *time.Time) OpportunityPatch {
	return OpportunityPatch{
		OpportunityID:   opportunityID,
		PipelineStageID: pipelineStageID,
		Status:          status,
		UpdatedAt:       updatedAt,
	}
}
