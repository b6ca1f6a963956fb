package highlevel

import (
	"errors"
	"time"
)

// Config holds configuration for the HighLevel (LeadConnector) API integration
type Config struct {
	// ClientID is the OAuth application client id
	ClientID string
	// ClientSecret is the OAuth application client secret
	ClientSecret string
	// RedirectURI is the OAuth callback URI registered with the platform
	RedirectURI string
	// LocationID is the agency sub-account (location) this deployment is bound to
	LocationID string
	// PipelineID is the sales pipeline new opportunities are created in
	PipelineID string
	// PipelineStageID is the initial stage for new opportunities
	PipelineStageID string
	// BaseURL is the API base URL
	BaseURL string
	// APIVersion is sent as the Version header on every API call
	APIVersion string
	// Timeout bounds every outbound HTTP call
	Timeout time.Duration
}

const (
	// ProductionAPIURL is the production API endpoint
	ProductionAPIURL = "https://services.leadconnectorhq.com"
	// DefaultAPIVersion is the API version header value
	DefaultAPIVersion = "2021-07-28"
)

// Errors for HighLevel configuration
var (
	ErrConfigMissingClientID     = errors.New("highlevel: client id is required")
	ErrConfigMissingClientSecret = errors.New("highlevel: client secret is required")
	ErrConfigMissingLocationID   = errors.New("highlevel: location id is required")
)

// NewConfig creates a new HighLevel configuration with defaults
func NewConfig(clientID, clientSecret, locationID string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LocationID:   locationID,
		BaseURL:      ProductionAPIURL,
		APIVersion:   DefaultAPIVersion,
		Timeout:      30 * time.Second,
	}
}

// Validate validates the configuration, filling defaults for optional fields
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.LocationID == "" {
		return ErrConfigMissingLocationID
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionAPIURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}
