package highlevel

import "github.com/shopspring/decimal"

// tokenResponse is the body of a successful OAuth grant response
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	LocationID   string `json:"locationId"`
	UserType     string `json:"userType"`
}

// tokenErrorResponse is the body of a rejected OAuth grant response
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// CreateOpportunityRequest is the payload for POST /opportunities/
type CreateOpportunityRequest struct {
	Name            string          `json:"name"`
	PipelineID      string          `json:"pipelineId"`
	PipelineStageID string          `json:"pipelineStageId,omitempty"`
	LocationID      string          `json:"locationId"`
	Status          string          `json:"status"`
	MonetaryValue   decimal.Decimal `json:"monetaryValue"`
	ContactID       string          `json:"contactId,omitempty"`
}

// OpportunityResponse is the platform's representation of a created opportunity
type OpportunityResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PipelineID      string          `json:"pipelineId"`
	PipelineStageID string          `json:"pipelineStageId"`
	Status          string          `json:"status"`
	MonetaryValue   decimal.Decimal `json:"monetaryValue"`
}

// createOpportunityResponse wraps the opportunity in the API's envelope
type createOpportunityResponse struct {
	Opportunity *OpportunityResponse `json:"opportunity"`
}

// PipelineStage is a single stage of a sales pipeline
type PipelineStage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// apiErrorResponse is the platform's generic error body
type apiErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
