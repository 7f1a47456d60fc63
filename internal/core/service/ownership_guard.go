package service

import "github.com/innoshop/platform/internal/core/domain"

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Denied  Decision = false
	Allowed Decision = true
)

// OwnershipGuard restricts mutation of a resource to the identity that
// created it. Reads are always allowed. The guard assumes the resource exists.
type OwnershipGuard struct {
	overrideRoles []string
}

// NewOwnershipGuard returns the strict creator-only guard.
func NewOwnershipGuard() *OwnershipGuard {
	return &OwnershipGuard{}
}

// WithOverrideRoles returns a guard that also allows mutation by callers
// holding any of roles. An empty list keeps the strict rule.
func (g *OwnershipGuard) WithOverrideRoles(roles ...string) *OwnershipGuard {
	return &OwnershipGuard{overrideRoles: append([]string(nil), roles...)}
}

// Authorize decides whether callerID may perform op on resource.
func (g *OwnershipGuard) Authorize(callerID string, resource domain.Owned, op domain.Operation) Decision {
	if !op.Mutating() {
		return Allowed
	}
	if callerID != "" && resource.OwnerID() == callerID {
		return Allowed
	}
	return Denied
}

// AuthorizePrincipal applies Authorize and then the role override policy.
func (g *OwnershipGuard) AuthorizePrincipal(caller domain.Principal, resource domain.Owned, op domain.Operation) Decision {
	if g.Authorize(caller.ID, resource, op) == Allowed {
		return Allowed
	}
	if len(g.overrideRoles) > 0 && caller.HasAnyRole(g.overrideRoles...) {
		return Allowed
	}
	return Denied
}
