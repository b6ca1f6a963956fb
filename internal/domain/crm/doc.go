// Package crm contains the CRM integration bounded context.
// This context manages the connection to the external pipeline/opportunity
// platform: canonical opportunity records fed by inbound webhooks, locally
// authored job drafts, and the OAuth credential used for outbound calls.
//
// Key concepts:
//   - Opportunity: canonical sales-pipeline record keyed by the CRM's external id
//   - OpportunityPatch: partial update produced by webhook normalization
//   - JobDraft: locally authored project posting, later projected into a CRM opportunity
//   - AuthCredential: the single OAuth token triple for the deployment's CRM connection
//
// Design Pattern: Ports & Adapters
//   - Ports (repository interfaces) are defined here in the domain layer
//   - Adapters (GORM repositories, the HighLevel HTTP client) are in the infrastructure layer
package crm
