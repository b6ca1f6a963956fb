package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcrm "github.com/devmatch/backend/internal/application/crm"
	"github.com/devmatch/backend/internal/domain/crm"
)

// JobRequest is the intake payload for a locally authored job draft
type JobRequest struct {
	Title               string   `json:"title" binding:"required,max=255"`
	Category            string   `json:"category" binding:"omitempty,max=100"`
	TargetAudience      string   `json:"targetAudience"`
	Description         string   `json:"description"`
	KeyFeatures         []string `json:"keyFeatures"`
	TechnologyStack     []string `json:"technologyStack"`
	Budget              string   `json:"budget" binding:"omitempty,budget"`
	Timeline            string   `json:"timeline" binding:"omitempty,max=100"`
	SuccessCriteria     string   `json:"successCriteria"`
	PotentialChallenges string   `json:"potentialChallenges"`
}

// JobResponse echoes the accepted draft back to the intake UI
type JobResponse struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Category            string   `json:"category"`
	TargetAudience      string   `json:"targetAudience"`
	Description         string   `json:"description"`
	KeyFeatures         []string `json:"keyFeatures"`
	TechnologyStack     []string `json:"technologyStack"`
	Budget              string   `json:"budget"`
	Timeline            string   `json:"timeline"`
	SuccessCriteria     string   `json:"successCriteria"`
	PotentialChallenges string   `json:"potentialChallenges"`
	CreatedAt           string   `json:"createdAt"`
}

// JobHandler accepts job-draft submissions from the intake flow
type JobHandler struct {
	BaseHandler
	outbound *appcrm.OutboundService
	log      *zap.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(outbound *appcrm.OutboundService, log *zap.Logger) *JobHandler {
	return &JobHandler{
		outbound: outbound,
		log:      log.Named("job-handler"),
	}
}

// RegisterJobValidators registers the custom binding validators used by the
// job intake payload. Call once at startup.
func RegisterJobValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("budget", validBudget)
}

// validBudget accepts free text but rejects values that look numeric yet do
// not parse to a non-negative amount, e.g. "$-100" or "5..0".
func validBudget(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	if len(s) > 100 {
		return false
	}

	trimmed := strings.TrimLeft(s, "$€£ ")
	if trimmed == "" || !isDigit(trimmed[0]) {
		// Free text like "to be discussed" is allowed
		return trimmed == "" || trimmed[0] != '-'
	}

	numeric := strings.ReplaceAll(trimmed, ",", "")
	end := 0
	for end < len(numeric) && (isDigit(numeric[end]) || numeric[end] == '.') {
		end++
	}
	v, err := decimal.NewFromString(numeric[:end])
	return err == nil && !v.IsNegative()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// CreateJob acknowledges the draft immediately with 201. Draft persistence
// and the CRM opportunity creation happen in the background and are not
// reflected in this response.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid job draft: "+err.Error())
		return
	}

	draft := h.outbound.Publish(crm.JobDraft{
		Title:               req.Title,
		Category:            req.Category,
		TargetAudience:      req.TargetAudience,
		Description:         req.Description,
		KeyFeatures:         req.KeyFeatures,
		TechnologyStack:     req.TechnologyStack,
		Budget:              req.Budget,
		Timeline:            req.Timeline,
		SuccessCriteria:     req.SuccessCriteria,
		PotentialChallenges: req.PotentialChallenges,
	})

	h.log.Info("Job draft accepted",
		zap.String("draft_id", draft.ID.String()),
		zap.String("title", draft.Title),
		zap.String("request_id", getRequestID(c)))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Job submitted successfully",
		"jobData": toJobResponse(draft),
	})
}

func toJobResponse(d *crm.JobDraft) JobResponse {
	return JobResponse{
		ID:                  d.ID.String(),
		Title:               d.Title,
		Category:            d.Category,
		TargetAudience:      d.TargetAudience,
		Description:         d.Description,
		KeyFeatures:         d.KeyFeatures,
		TechnologyStack:     d.TechnologyStack,
		Budget:              d.Budget,
		Timeline:            d.Timeline,
		SuccessCriteria:     d.SuccessCriteria,
		PotentialChallenges: d.PotentialChallenges,
		CreatedAt:           d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RegisterRoutes registers the job routes
func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs", h.CreateJob)
}
