package models

import (
	"encoding/json"
	"time"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpportunityModel is the persistence model for the Opportunity domain entity.
// OpportunityID is the platform-assigned identifier and is the idempotency key
// for webhook-driven writes.
type OpportunityModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OpportunityID   string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_opportunities_opportunity_id"`
	Name            string          `gorm:"type:varchar(255)"`
	Status          string          `gorm:"type:varchar(50)"`
	MonetaryValue   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	ContactID       string          `gorm:"type:varchar(100);index"`
	PipelineID      string          `gorm:"type:varchar(100)"`
	PipelineStageID string          `gorm:"type:varchar(100)"`
	AssignedTo      string          `gorm:"type:varchar(100)"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OpportunityModel) TableName() string {
	return "opportunities"
}

// ToDomain converts the persistence model to a domain Opportunity entity.
func (m *OpportunityModel) ToDomain() *crm.Opportunity {
	return &crm.Opportunity{
		ID:              m.ID,
		OpportunityID:   m.OpportunityID,
		Name:            m.Name,
		Status:          m.Status,
		MonetaryValue:   m.MonetaryValue,
		ContactID:       m.ContactID,
		PipelineID:      m.PipelineID,
		PipelineStageID: m.PipelineStageID,
		AssignedTo:      m.AssignedTo,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Opportunity entity.
func (m *OpportunityModel) FromDomain(o *crm.Opportunity) {
	m.ID = o.ID
	m.OpportunityID = o.OpportunityID
	m.Name = o.Name
	m.Status = o.Status
	m.MonetaryValue = o.MonetaryValue
	m.ContactID = o.ContactID
	m.PipelineID = o.PipelineID
	m.PipelineStageID = o.PipelineStageID
	m.AssignedTo = o.AssignedTo
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}

// OpportunityModelFromDomain creates a new persistence model from a domain Opportunity entity.
func OpportunityModelFromDomain(o *crm.Opportunity) *OpportunityModel {
	m := &OpportunityModel{}
	m.FromDomain(o)
	return m
}

// JobDraftModel is the persistence model for the JobDraft domain entity.
// List-valued fields are serialized as JSON columns.
type JobDraftModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	Title               string    `gorm:"type:varchar(255);not null"`
	Category            string    `gorm:"type:varchar(100)"`
	TargetAudience      string    `gorm:"type:text"`
	Description         string    `gorm:"type:text"`
	KeyFeaturesJSON     string    `gorm:"type:jsonb;column:key_features"`
	TechnologyStackJSON string    `gorm:"type:jsonb;column:technology_stack"`
	Budget              string    `gorm:"type:varchar(100)"`
	Timeline            string    `gorm:"type:varchar(100)"`
	SuccessCriteria     string    `gorm:"type:text"`
	PotentialChallenges string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JobDraftModel) TableName() string {
	return "job_drafts"
}

// ToDomain converts the persistence model to a domain JobDraft entity.
func (m *JobDraftModel) ToDomain() *crm.JobDraft {
	draft := &crm.JobDraft{
		ID:                  m.ID,
		Title:               m.Title,
		Category:            m.Category,
		TargetAudience:      m.TargetAudience,
		Description:         m.Description,
		KeyFeatures:         make([]string, 0),
		TechnologyStack:     make([]string, 0),
		Budget:              m.Budget,
		Timeline:            m.Timeline,
		SuccessCriteria:     m.SuccessCriteria,
		PotentialChallenges: m.PotentialChallenges,
		CreatedAt:           m.CreatedAt,
	}

	if m.KeyFeaturesJSON != "" {
		var features []string
		if err := json.Unmarshal([]byte(m.KeyFeaturesJSON), &features); err == nil {
			draft.KeyFeatures = features
		}
	}
	if m.TechnologyStackJSON != "" {
		var stack []string
		if err := json.Unmarshal([]byte(m.TechnologyStackJSON), &stack); err == nil {
			draft.TechnologyStack = stack
		}
	}

	return draft
}

// FromDomain populates the persistence model from a domain JobDraft entity.
func (m *JobDraftModel) FromDomain(d *crm.JobDraft) {
	m.ID = d.ID
	m.Title = d.Title
	m.Category = d.Category
	m.TargetAudience = d.TargetAudience
	m.Description = d.Description
	m.Budget = d.Budget
	m.Timeline = d.Timeline
	m.SuccessCriteria = d.SuccessCriteria
	m.PotentialChallenges = d.PotentialChallenges
	m.CreatedAt = d.CreatedAt

	m.KeyFeaturesJSON = marshalStringList(d.KeyFeatures)
	m.TechnologyStackJSON = marshalStringList(d.TechnologyStack)
}

// JobDraftModelFromDomain creates a new persistence model from a domain JobDraft entity.
func JobDraftModelFromDomain(d *crm.JobDraft) *JobDraftModel {
	m := &JobDraftModel{}
	m.FromDomain(d)
	return m
}

func marshalStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	jsonBytes, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(jsonBytes)
}

// AuthCredentialModel is the persistence model for the AuthCredential domain entity.
// One row per platform location, replaced in full on every token exchange or refresh.
type AuthCredentialModel struct {
	LocationID   string    `gorm:"type:varchar(100);primary_key"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	ExpiresAt    time.Time `gorm:""`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuthCredentialModel) TableName() string {
	return "auth_credentials"
}

// ToDomain converts the persistence model to a domain AuthCredential entity.
func (m *AuthCredentialModel) ToDomain() *crm.AuthCredential {
	return &crm.AuthCredential{
		LocationID:   m.LocationID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain AuthCredential entity.
func (m *AuthCredentialModel) FromDomain(c *crm.AuthCredential) {
	m.LocationID = c.LocationID
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.ExpiresAt = c.ExpiresAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// AuthCredentialModelFromDomain creates a new persistence model from a domain AuthCredential entity.
func AuthCredentialModelFromDomain(c *crm.AuthCredential) *AuthCredentialModel {
	m := &AuthCredentialModel{}
	m.FromDomain(c)
	return m
}
