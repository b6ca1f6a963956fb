package highlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

// maxResponseSize is the maximum allowed response size from the platform (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Client is the bearer-authenticated HTTP client for the pipeline platform's
// REST API. Every call is bounded by the configured timeout and carries the
// required Version header.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     *TokenManager
	log        *zap.Logger
}

// NewClient creates a new platform API client
func NewClient(config *Config, tokens *TokenManager, log *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		tokens:     tokens,
		log:        log.Named("highlevel"),
	}, nil
}

// CreateOpportunity creates a new opportunity in the configured pipeline
func (c *Client) CreateOpportunity(ctx context.Context, req crm.OpportunityCreate) (*crm.PlatformOpportunity, error) {
	wireReq := CreateOpportunityRequest{
		Name:            req.Name,
		PipelineID:      c.config.PipelineID,
		PipelineStageID: c.config.PipelineStageID,
		LocationID:      c.config.LocationID,
		Status:          req.Status,
		MonetaryValue:   req.MonetaryValue,
		ContactID:       req.ContactID,
	}
	if wireReq.Status == "" {
		wireReq.Status = "open"
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/opportunities/", wireReq)
	if err != nil {
		return nil, err
	}

	var resp createOpportunityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", crm.ErrPlatformInvalidResponse, err)
	}
	if resp.Opportunity == nil {
		return nil, fmt.Errorf("%w: response missing opportunity", crm.ErrPlatformInvalidResponse)
	}
	return &crm.PlatformOpportunity{
		ID:              resp.Opportunity.ID,
		Name:            resp.Opportunity.Name,
		Status:          resp.Opportunity.Status,
		PipelineID:      resp.Opportunity.PipelineID,
		PipelineStageID: resp.Opportunity.PipelineStageID,
		MonetaryValue:   resp.Opportunity.MonetaryValue,
	}, nil
}

// GetPipelineStage retrieves a single stage of a pipeline
func (c *Client) GetPipelineStage(ctx context.Context, pipelineID, stageID string) (*crm.PipelineStage, error) {
	path := fmt.Sprintf("/pipelines/%s/stages/%s", pipelineID, stageID)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var stage PipelineStage
	if err := json.Unmarshal(body, &stage); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", crm.ErrPlatformInvalidResponse, err)
	}
	return &crm.PipelineStage{
		ID:       stage.ID,
		Name:     stage.Name,
		Position: stage.Position,
	}, nil
}

// doRequest performs a bearer-authenticated JSON request against the API
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("highlevel: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("highlevel: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Version", c.config.APIVersion)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crm.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("highlevel: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp apiErrorResponse
		_ = json.Unmarshal(body, &errResp)
		detail := errResp.Message
		if detail == "" {
			detail = errResp.Error
		}
		if detail == "" {
			detail = "no error detail"
		}
		c.log.Warn("Platform request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		return nil, fmt.Errorf("%w: HTTP %d - %s", crm.ErrPlatformRequestFailed, resp.StatusCode, detail)
	}

	return body, nil
}

// Ensure Client implements the platform port
var _ crm.Platform = (*Client)(nil)
