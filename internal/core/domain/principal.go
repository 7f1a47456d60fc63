package domain

import "time"

// Principal is the authenticated caller as asserted by a bearer token.
// Roles are a snapshot taken at issuance and may be stale for up to the
// token TTL.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
	Roles       []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// IssuedToken is a signed bearer token and its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
