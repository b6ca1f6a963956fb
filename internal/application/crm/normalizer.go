package crm

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
)

// envelopeKeys are the provider-side wrapper properties. When several are
// present at the same level, the last one in this order wins.
var envelopeKeys = []string{"data", "payload", "opportunity"}

// fieldAliases maps each canonical field to the provider-side keys it may
// arrive under. The canonical key is listed first; resolution tries keys in
// order and the first match wins. The pipleine_stage_id entry covers a
// misspelling the provider is known to emit.
var fieldAliases = map[string][]string{
	"opportunity_id":    {"opportunity_id", "id", "opportunityId"},
	"name":              {"name", "opportunity_name", "opportunityName", "title"},
	"status":            {"status", "opportunity_status"},
	"monetary_value":    {"monetary_value", "lead_value", "monetaryValue", "leadValue"},
	"contact_id":        {"contact_id", "contactId"},
	"pipeline_id":       {"pipeline_id", "pipelineId"},
	"pipeline_stage_id": {"pipeline_stage_id", "pipleine_stage_id", "pipelineStageId"},
	"assigned_to":       {"assigned_to", "assignedTo"},
	"created_at":        {"created_at", "createdAt", "date_added", "dateAdded"},
	"updated_at":        {"updated_at", "updatedAt", "date_updated", "dateUpdated"},
}

// eventTypeKeys are the keys an explicit provider event type may arrive under.
var eventTypeKeys = []string{"type", "event_type", "eventType"}

// NormalizedEvent is the outcome of normalizing one inbound webhook payload.
// For contact-only events the patch is empty and Kind is EventKindContactOnly.
type NormalizedEvent struct {
	Kind          crm.EventKind
	OpportunityID string
	Patch         crm.OpportunityPatch
	// ProviderType is the raw explicit event type, empty when none was sent.
	ProviderType string
}

// ContactOnly reports whether the payload carried no opportunity identity.
func (e *NormalizedEvent) ContactOnly() bool {
	return e.Kind == crm.EventKindContactOnly
}

// Normalizer maps arbitrary inbound webhook JSON onto the canonical
// opportunity shape and classifies the event kind.
type Normalizer struct {
	opportunities     crm.OpportunityRepository
	trustExplicitType bool
	log               *zap.Logger
}

// NewNormalizer creates a new Normalizer. trustExplicitType decides the
// winner when the payload's explicit event type disagrees with the
// store-presence inference; the conflict is logged either way.
func NewNormalizer(opportunities crm.OpportunityRepository, trustExplicitType bool, log *zap.Logger) *Normalizer {
	return &Normalizer{
		opportunities:     opportunities,
		trustExplicitType: trustExplicitType,
		log:               log.Named("normalizer"),
	}
}

// Normalize unwraps the payload envelope, resolves field aliases and
// classifies the event. Payloads without a resolvable opportunity id are
// classified contact-only, never rejected. The only error path is a store
// failure during event-kind inference.
func (n *Normalizer) Normalize(ctx context.Context, payload map[string]any) (*NormalizedEvent, error) {
	record, levels := unwrapEnvelope(payload)

	providerType := resolveEventType(levels)

	opportunityID, _ := resolveString(record, fieldAliases["opportunity_id"])
	if opportunityID == "" {
		return &NormalizedEvent{
			Kind:         crm.EventKindContactOnly,
			ProviderType: providerType,
		}, nil
	}

	patch := buildPatch(opportunityID, record)

	inferred, err := n.inferKind(ctx, opportunityID, patch)
	if err != nil {
		return nil, err
	}

	kind := inferred
	if explicit := kindFromProviderType(providerType); explicit != "" {
		if explicit != inferred {
			n.log.Warn("Explicit webhook event type disagrees with store-presence inference",
				zap.String("opportunity_id", opportunityID),
				zap.String("explicit", string(explicit)),
				zap.String("inferred", string(inferred)),
				zap.Bool("explicit_wins", n.trustExplicitType))
		}
		if n.trustExplicitType {
			kind = explicit
		}
	}

	return &NormalizedEvent{
		Kind:          kind,
		OpportunityID: opportunityID,
		Patch:         patch,
		ProviderType:  providerType,
	}, nil
}

// inferKind classifies by store presence: absent is a creation, present is
// an update, refined to a stage or status change when the payload carries
// those fields. The refinement is informational; all three take the same
// write path.
func (n *Normalizer) inferKind(ctx context.Context, opportunityID string, patch crm.OpportunityPatch) (crm.EventKind, error) {
	exists, err := n.opportunities.ExistsByOpportunityID(ctx, opportunityID)
	if err != nil {
		return "", err
	}
	if !exists {
		return crm.EventKindCreated, nil
	}
	if patch.PipelineStageID != nil {
		return crm.EventKindStageChanged, nil
	}
	if patch.Status != nil {
		return crm.EventKindStatusChanged, nil
	}
	return crm.EventKindUpdated, nil
}

// unwrapEnvelope descends through wrapper properties until the innermost
// object is reached. It returns the innermost object plus every traversed
// level, outermost first, for event-type extraction.
func unwrapEnvelope(payload map[string]any) (map[string]any, []map[string]any) {
	levels := []map[string]any{payload}
	current := payload

	for {
		var next map[string]any
		for _, key := range envelopeKeys {
			if inner, ok := current[key].(map[string]any); ok {
				next = inner
			}
		}
		if next == nil {
			return current, levels
		}
		levels = append(levels, next)
		current = next
	}
}

// resolveEventType finds the explicit provider event type, preferring the
// outermost envelope level where providers usually place it.
func resolveEventType(levels []map[string]any) string {
	for _, level := range levels {
		if t, ok := resolveString(level, eventTypeKeys); ok {
			return t
		}
	}
	return ""
}

// kindFromProviderType maps an explicit provider type string onto an event
// kind. Unrecognized types return the empty kind so inference decides.
func kindFromProviderType(providerType string) crm.EventKind {
	t := strings.ToLower(providerType)
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "delete"):
		return crm.EventKindDeleted
	case strings.Contains(t, "stage"):
		return crm.EventKindStageChanged
	case strings.Contains(t, "status"):
		return crm.EventKindStatusChanged
	case strings.Contains(t, "create"):
		return crm.EventKindCreated
	case strings.Contains(t, "update"):
		return crm.EventKindUpdated
	default:
		return ""
	}
}

// buildPatch extracts the canonical fields present in the record. Absent
// fields stay nil so the synchronizer leaves stored values untouched.
func buildPatch(opportunityID string, record map[string]any) crm.OpportunityPatch {
	patch := crm.OpportunityPatch{OpportunityID: opportunityID}

	if v, ok := resolveString(record, fieldAliases["name"]); ok {
		patch.Name = &v
	}
	if v, ok := resolveString(record, fieldAliases["status"]); ok {
		patch.Status = &v
	}
	if v, ok := resolveDecimal(record, fieldAliases["monetary_value"]); ok {
		patch.MonetaryValue = &v
	}
	if v, ok := resolveString(record, fieldAliases["contact_id"]); ok {
		patch.ContactID = &v
	}
	if v, ok := resolveString(record, fieldAliases["pipeline_id"]); ok {
		patch.PipelineID = &v
	}
	if v, ok := resolveString(record, fieldAliases["pipeline_stage_id"]); ok {
		patch.PipelineStageID = &v
	}
	if v, ok := resolveString(record, fieldAliases["assigned_to"]); ok {
		patch.AssignedTo = &v
	}
	if v, ok := resolveTime(record, fieldAliases["created_at"]); ok {
		patch.CreatedAt = &v
	}
	if v, ok := resolveTime(record, fieldAliases["updated_at"]); ok {
		patch.UpdatedAt = &v
	}

	return patch
}

// resolveString tries each key in order and returns the first non-empty
// string value found. JSON numbers are rendered as strings because the
// provider's schema is not fixed and ids occasionally arrive numeric.
func resolveString(record map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		raw, present := record[key]
		if !present {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

// resolveDecimal accepts JSON numbers and numeric strings.
func resolveDecimal(record map[string]any, keys []string) (decimal.Decimal, bool) {
	for _, key := range keys {
		raw, present := record[key]
		if !present {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return decimal.NewFromFloat(v), true
		case string:
			if v == "" {
				continue
			}
			if d, err := decimal.NewFromString(v); err == nil {
				return d, true
			}
		}
	}
	return decimal.Decimal{}, false
}

// timeLayouts are the timestamp formats the provider is known to send.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// resolveTime accepts RFC 3339 style strings and epoch values. Epoch values
// above 1e12 are treated as milliseconds.
func resolveTime(record map[string]any, keys []string) (time.Time, bool) {
	for _, key := range keys {
		raw, present := record[key]
		if !present {
			continue
		}
		switch v := raw.(type) {
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					return t.UTC(), true
				}
			}
		case float64:
			if v <= 0 {
				continue
			}
			if v > 1e12 {
				return time.UnixMilli(int64(v)).UTC(), true
			}
			return time.Unix(int64(v), 0).UTC(), true
		}
	}
	return time.Time{}, false
}
