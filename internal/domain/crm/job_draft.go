package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobDraft is a locally authored project posting collected by the intake
// flow. It is persisted once and never mutated afterwards. A draft has no
// shared key with the CRM opportunity its publication may create; the two
// are related only by name attribution (see OutboundService).
type JobDraft struct {
	ID                  uuid.UUID
	Title               string
	Category            string
	TargetAudience      string
	Description         string
	KeyFeatures         []string
	TechnologyStack     []string
	Budget              string
	Timeline            string
	SuccessCriteria     string
	PotentialChallenges string
	CreatedAt           time.Time
}

// NewJobDraft assigns identity and creation time to a submitted draft.
func NewJobDraft(d JobDraft) *JobDraft {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()
	return &d
}

// BudgetValue extracts a monetary value from the free-text budget field,
// e.g. "$5,000" or "5000-10000 USD" yield 5000. Returns false when no
// leading numeric amount can be found.
func (d *JobDraft) BudgetValue() (decimal.Decimal, bool) {
	s := strings.TrimSpace(d.Budget)
	s = strings.TrimLeft(s, "$€£ ")
	s = strings.ReplaceAll(s, ",", "")

	end := 0
	for end < len(s) {
		ch := s[end]
		if (ch < '0' || ch > '9') && ch != '.' {
			break
		}
		end++
	}
	if end == 0 {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s[:end])
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}
