package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devmatch/backend/internal/domain/crm"
	"github.com/devmatch/backend/internal/domain/shared"
)

// WebhookResult is the acknowledgment returned to the provider after a
// delivery has been processed.
type WebhookResult struct {
	EventType     crm.EventKind
	OpportunityID string
	Timestamp     time.Time
}

// WebhookService processes inbound opportunity webhook deliveries: it
// normalizes the payload, deduplicates repeated deliveries and dispatches
// the resulting event to the synchronizer.
type WebhookService struct {
	normalizer *Normalizer
	sync       *SyncService
	dedupe     shared.IdempotencyStore
	dedupeTTL  time.Duration
	log        *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(normalizer *Normalizer, sync *SyncService, dedupe shared.IdempotencyStore, dedupeTTL time.Duration, log *zap.Logger) *WebhookService {
	return &WebhookService{
		normalizer: normalizer,
		sync:       sync,
		dedupe:     dedupe,
		dedupeTTL:  dedupeTTL,
		log:        log.Named("webhook"),
	}
}

// Process handles one raw webhook delivery. Empty or empty-object bodies
// return crm.ErrEmptyWebhookBody. Malformed JSON and payloads without an
// opportunity identity are acknowledged as contact-only events without any
// store write. Store failures are returned so the provider sees a non-2xx
// response and retries on its own schedule.
func (s *WebhookService) Process(ctx context.Context, raw []byte) (*WebhookResult, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, crm.ErrEmptyWebhookBody
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("Webhook payload is not a JSON object, acknowledging as contact-only",
			zap.Error(err))
		return s.ack(crm.EventKindContactOnly, ""), nil
	}
	if len(payload) == 0 {
		return nil, crm.ErrEmptyWebhookBody
	}

	event, err := s.normalizer.Normalize(ctx, payload)
	if err != nil {
		return nil, err
	}

	if event.ContactOnly() {
		s.log.Info("Webhook carried no opportunity identity, acknowledged without processing",
			zap.String("provider_type", event.ProviderType))
		return s.ack(crm.EventKindContactOnly, ""), nil
	}

	if s.alreadyProcessed(ctx, event) {
		s.log.Info("Duplicate webhook delivery acknowledged without re-processing",
			zap.String("opportunity_id", event.OpportunityID),
			zap.String("event_type", string(event.Kind)))
		return s.ack(event.Kind, event.OpportunityID), nil
	}

	// Stage and status refinements carry the full patch through the same
	// upsert as plain updates; the refined kind only shapes the ack and logs.
	switch event.Kind {
	case crm.EventKindDeleted:
		err = s.sync.Delete(ctx, event.OpportunityID)
	default:
		_, err = s.sync.Upsert(ctx, event.Patch)
	}
	if err != nil {
		return nil, err
	}

	return s.ack(event.Kind, event.OpportunityID), nil
}

// alreadyProcessed marks the delivery fingerprint and reports whether it was
// seen before. Deliveries without a payload timestamp are never deduplicated
// since distinct updates would share a fingerprint. A dedupe store failure
// degrades to normal processing; the upsert path is idempotent so a duplicate
// write is harmless.
func (s *WebhookService) alreadyProcessed(ctx context.Context, event *NormalizedEvent) bool {
	if s.dedupe == nil || event.Patch.UpdatedAt == nil {
		return false
	}

	fingerprint := deliveryFingerprint(event)
	isNew, err := s.dedupe.MarkProcessed(ctx, fingerprint, s.dedupeTTL)
	if err != nil {
		s.log.Warn("Webhook dedupe store unavailable, processing delivery anyway",
			zap.String("opportunity_id", event.OpportunityID),
			zap.Error(err))
		return false
	}
	return !isNew
}

// deliveryFingerprint identifies one logical delivery by event kind,
// opportunity id and the payload's own timestamp.
func deliveryFingerprint(event *NormalizedEvent) string {
	return fmt.Sprintf("%s|%s|%d", event.Kind, event.OpportunityID, event.Patch.UpdatedAt.UnixMilli())
}

func (s *WebhookService) ack(kind crm.EventKind, opportunityID string) *WebhookResult {
	return &WebhookResult{
		EventType:     kind,
		OpportunityID: opportunityID,
		Timestamp:     time.Now().UTC(),
	}
}
