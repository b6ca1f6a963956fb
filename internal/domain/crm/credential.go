package crm

import "time"

// AuthCredential is the OAuth token triple for the deployment's single CRM
// connection, keyed by the CRM location id. A refresh replaces the whole
// triple; the refresh token is preserved when the grant response omits a new
// one (the CRM may or may not rotate it).
type AuthCredential struct {
	LocationID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExpiresWithin reports whether the access token is absent or expires inside
// the given buffer. A zero ExpiresAt means the expiry could not be determined
// and the token is treated as already expired.
func (c *AuthCredential) ExpiresWithin(buffer time.Duration) bool {
	if c == nil || c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(buffer).After(c.ExpiresAt)
}
