package crm

import "context"

// OpportunityRepository is the port for the persistent opportunity store.
// All operations are keyed by the CRM-side external opportunity id and are
// idempotent; the store guarantees per-record atomicity for a single call.
type OpportunityRepository interface {
	// FindByOpportunityID returns the record or ErrOpportunityNotFound.
	FindByOpportunityID(ctx context.Context, opportunityID string) (*Opportunity, error)

	// ExistsByOpportunityID reports record presence without loading it.
	ExistsByOpportunityID(ctx context.Context, opportunityID string) (bool, error)

	// Upsert inserts a new record from the patch or merges the patch's
	// supplied fields over the existing one, returning the stored state.
	Upsert(ctx context.Context, patch OpportunityPatch) (*Opportunity, error)

	// DeleteByOpportunityID removes the record; absent is a no-op, not an error.
	DeleteByOpportunityID(ctx context.Context, opportunityID string) error
}

// JobDraftRepository persists locally authored job drafts.
type JobDraftRepository interface {
	Save(ctx context.Context, draft *JobDraft) error
	FindByID(ctx context.Context, id string) (*JobDraft, error)
}

// AuthCredentialRepository persists the OAuth credential keyed by location id
// so a restart can resume from the stored refresh token.
type AuthCredentialRepository interface {
	Save(ctx context.Context, cred *AuthCredential) error
	FindByLocationID(ctx context.Context, locationID string) (*AuthCredential, error)
}
