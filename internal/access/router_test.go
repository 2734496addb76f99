package access

import (
	"testing"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScopeOf(t *testing.T) {
	tests := []struct {
		path   string
		want   domain.Role
		scoped bool
	}{
		{"/patient/dashboard", domain.RolePatient, true},
		{"/patient", domain.RolePatient, true},
		{"/doctor/patients/123", domain.RoleDoctor, true},
		{"/api/v1/doctor/dashboard", domain.RoleDoctor, true},
		{"/api/v1/patient", domain.RolePatient, true},
		{"/patients", "", false},
		{"/doctors/list", "", false},
		{"/api/v1x/patient", "", false},
		{"/api/v1/auth/sign-in", "", false},
		{"/", "", false},
		{"", "", false},
		{"/settings", "", false},
		{"//patient/dashboard", domain.RolePatient, true},
		{"/./patient/settings", domain.RolePatient, true},
		{"/Patient/dashboard", domain.RolePatient, true},
		{"/DOCTOR", domain.RoleDoctor, true},
		{"/api/v1//doctor/patients", domain.RoleDoctor, true},
		{"/API/V1/doctor/patients", domain.RoleDoctor, true},
		{"/settings/../doctor/patients", domain.RoleDoctor, true},
		{"/patient/../settings", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, scoped := ScopeOf(tt.path)
			assert.Equal(t, tt.scoped, scoped)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_Scenarios(t *testing.T) {
	// Patient visiting a doctor page lands on their own dashboard.
	d := Decide(true, domain.RolePatient, "/doctor/dashboard")
	assert.Equal(t, RedirectToOtherDashboard, d.Outcome)
	assert.Equal(t, "/patient/dashboard", d.Location)

	// Anonymous visitor is sent to sign in with a return path.
	d = Decide(false, "", "/patient/settings")
	assert.Equal(t, RedirectToSignIn, d.Outcome)
	assert.Equal(t, "/sign-in?redirect_url=%2Fpatient%2Fsettings", d.Location)

	d = Decide(true, domain.RoleDoctor, "/doctor/dashboard")
	assert.Equal(t, Decision{Outcome: Allow}, d)

	d = Decide(true, "", "/patient/dashboard")
	assert.Equal(t, RedirectToOnboarding, d.Outcome)
	assert.Equal(t, OnboardingPath, d.Location)

	d = Decide(false, "", "/about")
	assert.Equal(t, Allow, d.Outcome)
}

func TestDecide_AlternateSpellingsStayGated(t *testing.T) {
	for _, path := range []string{
		"//patient/dashboard",
		"/./patient/settings",
		"/Patient/dashboard",
		"/api/v1//doctor/patients",
	} {
		d := Decide(false, "", path)
		assert.Equal(t, RedirectToSignIn, d.Outcome, path)
	}

	d := Decide(true, domain.RolePatient, "/Doctor/dashboard")
	assert.Equal(t, RedirectToOtherDashboard, d.Outcome)
	assert.Equal(t, "/patient/dashboard", d.Location)
}

// Every combination of role, authentication and scope yields the outcome
// the routing rules prescribe.
func TestDecide_Consistency(t *testing.T) {
	paths := []string{
		"/patient/dashboard", "/doctor/dashboard", "/api/v1/patient/reports",
		"/api/v1/doctor/patients", "/patients", "/", "/onboarding", "/doctor",
	}
	roles := []domain.Role{domain.RolePatient, domain.RoleDoctor, ""}

	for _, path := range paths {
		scope, scoped := ScopeOf(path)
		for _, role := range roles {
			for _, authed := range []bool{true, false} {
				d := Decide(authed, role, path)
				switch {
				case !scoped:
					assert.Equal(t, Allow, d.Outcome, path)
				case !authed:
					assert.Equal(t, RedirectToSignIn, d.Outcome, path)
				case role == "":
					assert.Equal(t, RedirectToOnboarding, d.Outcome, path)
				case role == scope:
					assert.Equal(t, Allow, d.Outcome, path)
				default:
					assert.Equal(t, RedirectToOtherDashboard, d.Outcome, path)
					assert.Equal(t, role.DashboardPath(), d.Location, path)
				}
			}
		}
	}
}

func TestIsAPI(t *testing.T) {
	assert.True(t, IsAPI("/api/v1/patient/dashboard"))
	assert.False(t, IsAPI("/patient/dashboard"))
	assert.False(t, IsAPI("/api/v10/x"))
	assert.True(t, IsAPI("//api/v1/patient/reports"))
	assert.True(t, IsAPI("/API/v1/doctor"))
}
