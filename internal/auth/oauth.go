package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

// ErrInvalidProfile is returned when GitHub's profile payload lacks a stable
// account id or a login name.
var ErrInvalidProfile = errors.New("invalid github profile")

// exchangeTimeout bounds the code-for-token exchange and the profile fetch
// so a stalled provider cannot hold a callback request open indefinitely.
const exchangeTimeout = 10 * time.Second

// Profile is the validated identity returned from a completed OAuth
// exchange, together with the access token it was obtained with.
type Profile struct {
	GitHubID    int64
	Username    string
	AvatarURL   string
	AccessToken string
}

// GitHubOAuth drives the redirect/callback exchange with GitHub.
type GitHubOAuth struct {
	config  *oauth2.Config
	baseURL string // GitHub API base; overridden in tests.
}

// NewGitHubOAuth creates the OAuth flow for the given app credentials.
// Scopes cover profile/email plus repository read access, since the stored
// token is later used to list the user's repositories and commits.
func NewGitHubOAuth(clientID, clientSecret, callbackURL string) *GitHubOAuth {
	return &GitHubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"user:email", "repo"},
			Endpoint:     oauthgithub.Endpoint,
		},
		baseURL: "",
	}
}

// NewGitHubOAuthWithEndpoints creates a GitHubOAuth whose authorize, token
// and API URLs all point at a test server.
func NewGitHubOAuthWithEndpoints(clientID, clientSecret, callbackURL, serverURL string) *GitHubOAuth {
	o := NewGitHubOAuth(clientID, clientSecret, callbackURL)
	o.config.Endpoint = oauth2.Endpoint{
		AuthURL:  serverURL + "/login/oauth/authorize",
		TokenURL: serverURL + "/login/oauth/access_token",
	}
	o.baseURL = serverURL + "/"
	return o
}

// AuthURL returns the GitHub authorize URL carrying the given state nonce.
func (o *GitHubOAuth) AuthURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// Exchange trades the callback code for an access token, fetches the
// user's profile, and validates it. The raw provider payload never leaves
// this method; callers get the strict Profile shape or an error.
func (o *GitHubOAuth) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange oauth code: %w", err)
	}

	client := gh.NewClient(o.config.Client(ctx, token))
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse api base url: %w", err)
		}
		client.BaseURL = u
	}

	ghUser, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch github profile: %w", err)
	}

	if ghUser.GetID() == 0 || ghUser.GetLogin() == "" {
		return nil, ErrInvalidProfile
	}

	return &Profile{
		GitHubID:    ghUser.GetID(),
		Username:    ghUser.GetLogin(),
		AvatarURL:   ghUser.GetAvatarURL(),
		AccessToken: token.AccessToken,
	}, nil
}

// GenerateState returns a random state nonce for the authorize redirect.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
