package oidc

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestProvider_AuthCodeURL(t *testing.T) {
	p := &Provider{
		name: "google",
		oauthConfig: &oauth2.Config{
			ClientID:    "client",
			RedirectURL: "https://portal.example/api/v1/auth/oauth/google/callback",
			Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example/auth"},
			Scopes:      []string{"openid", "email"},
		},
	}

	raw := p.AuthCodeURL("state-1", "challenge-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "client", q.Get("client_id"))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), "google", "https://accounts.google.com", "", "", "")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&Provider{name: "google"})

	p, err := r.Get("google")
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	_, err = r.Get("github")
	assert.Error(t, err)
}
