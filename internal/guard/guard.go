// Package guard gates gateway routes on session state and role. The
// decision is a pure function of a session snapshot and a route's required
// roles; the middleware translates decisions into HTTP. The guard is
// advisory only — the remote API is the authority on every action.
package guard

import (
	"net/url"

	"foodbridge/internal/api"
	"foodbridge/internal/session"
)

// LoginPath is where unauthenticated navigation is sent.
const LoginPath = "/login"

// Dashboard roots per role.
const (
	AdminDashboardPath   = "/admin"
	DonorDashboardPath   = "/donor"
	CharityDashboardPath = "/charity"
)

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Allow renders the requested content.
	Allow Decision = iota
	// Wait means the session is still restoring; no redirect decision yet.
	Wait
	// RedirectLogin sends the request to the login route, preserving the
	// original location for a post-login return.
	RedirectLogin
	// RedirectDashboard sends a role-mismatched request to the current
	// role's own dashboard root.
	RedirectDashboard
)

// Result carries the decision and, for redirects, the target location.
type Result struct {
	Decision Decision
	Location string
}

// DashboardPath maps a role to its dashboard root. Unrecognized roles map
// to the login path.
func DashboardPath(role api.Role) string {
	switch role {
	case api.RoleAdmin:
		return AdminDashboardPath
	case api.RoleDonor:
		return DonorDashboardPath
	case api.RoleCharity:
		return CharityDashboardPath
	default:
		return LoginPath
	}
}

// Decide evaluates one navigation request. requested is the original URL
// (path and query), carried through a login redirect as the "next"
// parameter. requiredRoles empty means any authenticated user may pass.
func Decide(state session.State, requested string, requiredRoles ...api.Role) Result {
	if state.IsLoading {
		return Result{Decision: Wait}
	}

	if !state.IsAuthenticated {
		location := LoginPath
		if requested != "" {
			location += "?next=" + url.QueryEscape(requested)
		}
		return Result{Decision: RedirectLogin, Location: location}
	}

	if len(requiredRoles) == 0 {
		return Result{Decision: Allow}
	}

	role := state.Role()
	for _, required := range requiredRoles {
		if role == required {
			return Result{Decision: Allow}
		}
	}

	if !role.Valid() {
		return Result{Decision: RedirectLogin, Location: LoginPath}
	}
	return Result{Decision: RedirectDashboard, Location: DashboardPath(role)}
}
