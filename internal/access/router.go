// Package access decides whether a request may reach a path given who is
// asking. It performs no I/O.
package access

import (
	"net/url"
	"path"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
)

const (
	SignInPath     = "/sign-in"
	OnboardingPath = "/onboarding"

	apiPrefix = "/api/v1"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectToSignIn
	RedirectToOtherDashboard
	// RedirectToOnboarding is returned for signed-in identities that have
	// not picked a role yet.
	RedirectToOnboarding
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectToSignIn:
		return "redirect_sign_in"
	case RedirectToOtherDashboard:
		return "redirect_other_dashboard"
	case RedirectToOnboarding:
		return "redirect_onboarding"
	}
	return "unknown"
}

type Decision struct {
	Outcome Outcome
	// Location is empty for Allow.
	Location string
}

// normalize collapses duplicate slashes and dot segments and lowercases the
// result, so every spelling the router would serve maps to one scope.
func normalize(raw string) string {
	return strings.ToLower(path.Clean("/" + raw))
}

// ScopeOf returns the role a path is reserved for. A path is role-scoped
// when its first segment, after an optional /api/v1 prefix, is "patient" or
// "doctor" in any letter case.
func ScopeOf(raw string) (domain.Role, bool) {
	p := normalize(raw)
	if rest, ok := strings.CutPrefix(p, apiPrefix); ok && (rest == "" || rest[0] == '/') {
		p = rest
	}
	p = strings.TrimPrefix(p, "/")
	seg, _, _ := strings.Cut(p, "/")

	switch domain.Role(seg) {
	case domain.RolePatient:
		return domain.RolePatient, true
	case domain.RoleDoctor:
		return domain.RoleDoctor, true
	}
	return "", false
}

// IsAPI reports whether path belongs to the JSON API rather than a page.
func IsAPI(raw string) bool {
	p := normalize(raw)
	return p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/")
}

// Decide is total: every input yields a decision.
func Decide(authenticated bool, role domain.Role, path string) Decision {
	scope, scoped := ScopeOf(path)
	if !scoped {
		return Decision{Outcome: Allow}
	}

	if !authenticated {
		return Decision{
			Outcome:  RedirectToSignIn,
			Location: SignInPath + "?redirect_url=" + url.QueryEscape(path),
		}
	}

	if !role.IsValid() {
		return Decision{Outcome: RedirectToOnboarding, Location: OnboardingPath}
	}

	if role != scope {
		return Decision{Outcome: RedirectToOtherDashboard, Location: role.DashboardPath()}
	}

	return Decision{Outcome: Allow}
}
