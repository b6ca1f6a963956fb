package crm

import "errors"

// Platform errors
var (
	ErrPlatformNotConfigured   = errors.New("crm: platform not configured")
	ErrPlatformUnavailable     = errors.New("crm: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("crm: platform request failed")
	ErrPlatformInvalidResponse = errors.New("crm: invalid platform response")
)

// Authorization errors
var (
	// ErrAuthFailed indicates a token exchange or refresh was rejected.
	// It is never retried automatically; re-authorization is required.
	ErrAuthFailed   = errors.New("crm: authorization failed")
	ErrNoCredential = errors.New("crm: no stored credential for location")
)

// Webhook errors
var (
	// ErrNoOpportunityIdentity marks a payload with no resolvable opportunity id.
	// Callers classify these as contact-only events, not failures.
	ErrNoOpportunityIdentity = errors.New("crm: payload carries no opportunity identity")
	ErrEmptyWebhookBody      = errors.New("crm: webhook body is empty")
)

// Record errors
var (
	ErrOpportunityNotFound = errors.New("crm: opportunity not found")
	ErrJobDraftNotFound    = errors.New("crm: job draft not found")
)
