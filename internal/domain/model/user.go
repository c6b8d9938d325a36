package model

import "time"

// User is one GitHub identity known to the application. AccessToken is the
// user's GitHub OAuth token: plaintext everywhere above the encrypting store
// decorator, an encrypted envelope at rest.
type User struct {
	ID          string // Opaque internal id (UUID), assigned at creation.
	GitHubID    int64  // GitHub account id; unique, the login lookup key.
	Username    string // GitHub login at time of last login.
	AvatarURL   string // May be empty.
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicUser is the projection of a User safe to return to the browser.
// It never carries the access token.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Public returns the browser-safe projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// GitHubProfile is the strictly-typed shape of a GitHub profile as accepted
// past the OAuth boundary. Raw provider payloads are mapped into this at the
// edge and never travel further.
type GitHubProfile struct {
	ID        int64
	Username  string
	AvatarURL string
}
