package highlevel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/devmatch/backend/internal/domain/crm"
)

// accessTokenExpiryBuffer is the minimum remaining validity a token must have
// to be handed out. Anything closer to expiry triggers a refresh first.
const accessTokenExpiryBuffer = 5 * time.Minute

// refreshFlightKey collapses concurrent refresh attempts into one call.
const refreshFlightKey = "refresh"

// TokenManager owns the process-wide OAuth credential for the single CRM
// connection. The platform rotates refresh tokens, so concurrent callers that
// each detect a stale token must share one refresh call: a second refresh
// presenting the already-rotated token would fail even though the first
// succeeded.
type TokenManager struct {
	config     *Config
	httpClient *http.Client
	creds      crm.AuthCredentialRepository
	log        *zap.Logger

	mu      sync.RWMutex
	current *crm.AuthCredential

	flight singleflight.Group
}

// NewTokenManager creates a TokenManager for the given platform configuration
func NewTokenManager(config *Config, creds crm.AuthCredentialRepository, log *zap.Logger) (*TokenManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TokenManager{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		creds:      creds,
		log:        log.Named("highlevel.token"),
	}, nil
}

// Bootstrap loads the persisted credential for the configured location, if
// any, so a restarted process can resume from the stored refresh token.
func (m *TokenManager) Bootstrap(ctx context.Context) error {
	cred, err := m.creds.FindByLocationID(ctx, m.config.LocationID)
	if err != nil {
		if errors.Is(err, crm.ErrNoCredential) {
			m.log.Info("No stored credential, waiting for OAuth authorization",
				zap.String("location_id", m.config.LocationID))
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.current = cred
	m.mu.Unlock()

	m.log.Info("Loaded stored credential",
		zap.String("location_id", cred.LocationID),
		zap.Time("expires_at", cred.ExpiresAt))
	return nil
}

// GetValidAccessToken returns a bearer token guaranteed to have at least five
// minutes of remaining validity, refreshing at most once. Callers arriving
// while a refresh is in flight await that same refresh; afterwards each one
// re-evaluates validity rather than assuming staleness was fixed.
func (m *TokenManager) GetValidAccessToken(ctx context.Context) (string, error) {
	if token, ok := m.validToken(); ok {
		return token, nil
	}

	if _, err, _ := m.flight.Do(refreshFlightKey, func() (any, error) {
		return nil, m.refresh(ctx)
	}); err != nil {
		return "", err
	}

	token, ok := m.validToken()
	if !ok {
		return "", fmt.Errorf("%w: token still expired after refresh", crm.ErrAuthFailed)
	}
	return token, nil
}

// RefreshAccessToken forces a refresh-token grant. Concurrent calls share a
// single flight. Failures are terminal: the held credential is left untouched
// and the caller must not retry automatically, re-authorization is required.
func (m *TokenManager) RefreshAccessToken(ctx context.Context) error {
	_, err, _ := m.flight.Do(refreshFlightKey, func() (any, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

// ExchangeAuthorizationCode performs the one-time authorization-code grant
// used by the OAuth callback flow and persists the resulting credential.
func (m *TokenManager) ExchangeAuthorizationCode(ctx context.Context, code string) (*crm.AuthCredential, error) {
	form := url.Values{}
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("user_type", "Location")
	if m.config.RedirectURI != "" {
		form.Set("redirect_uri", m.config.RedirectURI)
	}

	tr, err := m.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}

	locationID := tr.LocationID
	if locationID == "" {
		locationID = m.config.LocationID
	}

	now := time.Now().UTC()
	cred := &crm.AuthCredential{
		LocationID:   locationID,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    m.expiryFrom(tr),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.creds.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("highlevel: failed to persist credential: %w", err)
	}

	m.mu.Lock()
	m.current = cred
	m.mu.Unlock()

	m.log.Info("Authorization code exchanged",
		zap.String("location_id", cred.LocationID),
		zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// validToken returns the held access token when it is outside the expiry buffer
func (m *TokenManager) validToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.ExpiresWithin(accessTokenExpiryBuffer) {
		return "", false
	}
	return m.current.AccessToken, true
}

// refresh performs the refresh-token grant and atomically replaces the held
// credential. The prior refresh token is preserved when the grant response
// omits a new one. On failure nothing is mutated.
func (m *TokenManager) refresh(ctx context.Context) error {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current == nil || current.RefreshToken == "" {
		return fmt.Errorf("%w: %v", crm.ErrAuthFailed, crm.ErrNoCredential)
	}

	form := url.Values{}
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", current.RefreshToken)
	form.Set("user_type", "Location")

	tr, err := m.requestToken(ctx, form)
	if err != nil {
		return err
	}

	refreshToken := tr.RefreshToken
	if refreshToken == "" {
		refreshToken = current.RefreshToken
	}

	cred := &crm.AuthCredential{
		LocationID:   current.LocationID,
		AccessToken:  tr.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    m.expiryFrom(tr),
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}

	m.mu.Lock()
	m.current = cred
	m.mu.Unlock()

	// The in-memory credential is authoritative; a failed persist only costs
	// a re-authorization after restart.
	if err := m.creds.Save(ctx, cred); err != nil {
		m.log.Error("Failed to persist refreshed credential", zap.Error(err))
	}

	m.log.Info("Access token refreshed", zap.Time("expires_at", cred.ExpiresAt))
	return nil
}

// requestToken posts a form-encoded grant request to the token endpoint
func (m *TokenManager) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.config.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("highlevel: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crm.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("highlevel: failed to read token response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp)
		detail := errResp.ErrorDescription
		if detail == "" {
			detail = errResp.Message
		}
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", crm.ErrAuthFailed, detail)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: failed to parse token response: %v", crm.ErrPlatformInvalidResponse, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", crm.ErrPlatformInvalidResponse)
	}
	return &tr, nil
}

// expiryFrom derives the credential expiry, preferring the exp claim embedded
// in the access token over the grant's declared lifetime. A token that cannot
// be decoded yields a zero expiry, which counts as already expired: failing
// toward a refresh is safer than reusing an unverifiable token.
func (m *TokenManager) expiryFrom(tr *tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresIn > 0 {
		return time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return time.Time{}
}
