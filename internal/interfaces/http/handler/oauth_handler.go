package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

// CodeExchanger performs the one-time authorization-code grant. Implemented
// by the token manager.
type CodeExchanger interface {
	ExchangeAuthorizationCode(ctx context.Context, code string) (*crm.AuthCredential, error)
}

// OAuthHandler completes the provider's OAuth authorization flow. The
// callback is opened in an operator's browser, so responses are plain text.
type OAuthHandler struct {
	BaseHandler
	tokens CodeExchanger
	log    *zap.Logger
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(tokens CodeExchanger, log *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		tokens: tokens,
		log:    log.Named("oauth-handler"),
	}
}

// Callback exchanges the authorization code for a token pair. The credential
// is persisted by the exchange so a restart can resume from it.
func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Authorization code missing")
		return
	}

	cred, err := h.tokens.ExchangeAuthorizationCode(c.Request.Context(), code)
	if err != nil {
		h.log.Error("Authorization code exchange failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to exchange authorization code")
		return
	}

	h.log.Info("Authorization completed",
		zap.String("location_id", cred.LocationID),
		zap.Time("expires_at", cred.ExpiresAt))
	c.String(http.StatusOK, "Authorization successful. You can close this window.")
}

// RegisterRoutes registers the OAuth routes
func (h *OAuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/oauth/callback", h.Callback)
}
