package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the token endpoint and the /user profile endpoint.
func fakeGitHub(t *testing.T, profile map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "gho_testtoken",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubOAuth_AuthURL(t *testing.T) {
	o := NewGitHubOAuth("client-id", "client-secret", "http://localhost:3000/auth/github/callback")

	u := o.AuthURL("state-nonce")

	assert.Contains(t, u, "github.com/login/oauth/authorize")
	assert.Contains(t, u, "state=state-nonce")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "repo")
}

func TestGitHubOAuth_Exchange(t *testing.T) {
	srv := fakeGitHub(t, map[string]any{
		"id":         42,
		"login":      "alice",
		"avatar_url": "https://avatars.example.com/42",
	})
	o := NewGitHubOAuthWithEndpoints("id", "secret", "http://localhost/cb", srv.URL)

	profile, err := o.Exchange(context.Background(), "test-code")

	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.GitHubID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "https://avatars.example.com/42", profile.AvatarURL)
	assert.Equal(t, "gho_testtoken", profile.AccessToken)
}

func TestGitHubOAuth_RejectsIncompleteProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile map[string]any
	}{
		{"missing id", map[string]any{"login": "alice"}},
		{"missing login", map[string]any{"id": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeGitHub(t, tt.profile)
			o := NewGitHubOAuthWithEndpoints("id", "secret", "http://localhost/cb", srv.URL)

			_, err := o.Exchange(context.Background(), "test-code")
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	require.NoError(t, err)
	second, err := GenerateState()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.False(t, strings.ContainsAny(first, "+/"), "state must be URL-safe")
}
