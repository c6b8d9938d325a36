// Package cryptostore wraps a UserStore so access tokens are encrypted on
// every write path and decrypted on every read path. Callers above this
// decorator never see ciphertext and never pre-encrypt.
package cryptostore

import (
	"context"
	"fmt"

	"github.com/commitdigest/commitdigest/internal/crypto"
	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserStore)(nil)

// UserStore decorates another UserStore with transparent token encryption.
type UserStore struct {
	inner  driven.UserStore
	cipher *crypto.TokenCipher
}

// NewUserStore wraps inner with the given cipher.
func NewUserStore(inner driven.UserStore, cipher *crypto.TokenCipher) *UserStore {
	return &UserStore{inner: inner, cipher: cipher}
}

// FindByGitHubID delegates the lookup and decrypts the stored token.
func (s *UserStore) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	user, err := s.inner.FindByGitHubID(ctx, githubID)
	if err != nil {
		return nil, err
	}
	return s.decryptUser(user)
}

// FindByID delegates the lookup and decrypts the stored token.
func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decryptUser(user)
}

// Upsert encrypts the access token before delegating, then decrypts the
// returned record so the caller round-trips plaintext.
func (s *UserStore) Upsert(ctx context.Context, user model.User) (*model.User, error) {
	if user.AccessToken != "" {
		encrypted, err := s.cipher.Encrypt(user.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt access token: %w", err)
		}
		user.AccessToken = encrypted
	}

	stored, err := s.inner.Upsert(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.decryptUser(stored)
}

// Update encrypts the access token only when the partial update carries it;
// other fields pass through untouched.
func (s *UserStore) Update(ctx context.Context, id string, update driven.UserUpdate) (*model.User, error) {
	if update.AccessToken != nil && *update.AccessToken != "" {
		encrypted, err := s.cipher.Encrypt(*update.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt access token: %w", err)
		}
		update.AccessToken = &encrypted
	}

	stored, err := s.inner.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	return s.decryptUser(stored)
}

// decryptUser replaces a non-empty stored token with its plaintext. A
// corrupt envelope or a key mismatch propagates as an error; it must never
// degrade to returning ciphertext or an empty token.
func (s *UserStore) decryptUser(user *model.User) (*model.User, error) {
	if user == nil {
		return nil, nil
	}
	if user.AccessToken == "" {
		return user, nil
	}

	plaintext, err := s.cipher.Decrypt(user.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for user %s: %w", user.ID, err)
	}
	user.AccessToken = plaintext
	return user, nil
}
