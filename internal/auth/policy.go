package auth

import "fmt"

// Decision is the result of an access-policy check. On denial,
// Requirement names the unmet requirement for error reporting.
type Decision struct {
	Allowed     bool
	Requirement string
}

// allow is the shared success decision.
var allow = Decision{Allowed: true}

// RequireRole passes when the identity holds the given role.
// system_admin passes every role check.
func RequireRole(identity *Identity, role Role) Decision {
	return RequireAnyRole(identity, role)
}

// RequireAnyRole passes when the identity holds any of the given roles.
// system_admin passes regardless of the set. An empty role set is a
// programming error, not a runtime condition, and panics.
func RequireAnyRole(identity *Identity, roles ...Role) Decision {
	if len(roles) == 0 {
		panic("auth: RequireAnyRole called with empty role set")
	}

	// The admin bypass lives here and only here; RequireRole and
	// RequireSelfOrAdmin route through it.
	if identity.Role == RoleSystemAdmin {
		return allow
	}

	for _, r := range roles {
		if identity.Role == r {
			return allow
		}
	}

	return Decision{Requirement: fmt.Sprintf("role %s", joinRoles(roles))}
}

// RequireSelfOrAdmin passes when the identity is acting on its own
// resource or holds system_admin.
func RequireSelfOrAdmin(identity *Identity, targetID string) Decision {
	if identity.ID == targetID {
		return allow
	}
	if d := RequireAnyRole(identity, RoleSystemAdmin); d.Allowed {
		return allow
	}
	return Decision{Requirement: "resource owner or role system_admin"}
}

// joinRoles renders a role set for denial messages.
func joinRoles(roles []Role) string {
	s := string(roles[0])
	for _, r := range roles[1:] {
		s += " or " + string(r)
	}
	return s
}
