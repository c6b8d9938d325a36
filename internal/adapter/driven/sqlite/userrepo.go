package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
// It stores the access token exactly as given; encryption happens in the
// cryptostore decorator above this layer.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByGitHubID retrieves a user by GitHub account id. Returns nil, nil if
// no such user exists.
func (r *UserRepo) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	const query = `SELECT id, github_id, username, avatar_url, access_token, created_at, updated_at
		FROM users WHERE github_id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, githubID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by github id %d: %w", githubID, err)
	}

	return user, nil
}

// FindByID retrieves a user by internal id. Returns nil, nil if no such
// user exists.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT id, github_id, username, avatar_url, access_token, created_at, updated_at
		FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id %s: %w", id, err)
	}

	return user, nil
}

// Upsert inserts a new user or updates the existing one with the same
// github_id. The UNIQUE constraint plus ON CONFLICT DO UPDATE makes two
// near-simultaneous first logins converge on a single record without an
// in-process lock.
func (r *UserRepo) Upsert(ctx context.Context, user model.User) (*model.User, error) {
	const query = `INSERT INTO users (id, github_id, username, avatar_url, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			username = excluded.username,
			avatar_url = excluded.avatar_url,
			access_token = excluded.access_token,
			updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		id, user.GitHubID, user.Username, user.AvatarURL, user.AccessToken, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user github id %d: %w", user.GitHubID, err)
	}

	stored, err := r.FindByGitHubID(ctx, user.GitHubID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert user github id %d: record missing after write", user.GitHubID)
	}

	return stored, nil
}

// Update applies a partial update to the user with the given internal id.
func (r *UserRepo) Update(ctx context.Context, id string, update driven.UserUpdate) (*model.User, error) {
	var sets []string
	var args []any

	if update.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *update.Username)
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *update.AvatarURL)
	}
	if update.AccessToken != nil {
		sets = append(sets, "access_token = ?")
		args = append(args, *update.AccessToken)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC().Format(time.RFC3339))
		args = append(args, id)

		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		result, err := r.db.Writer.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("check rows affected: %w", err)
		}
		if rows == 0 {
			return nil, fmt.Errorf("update user %s: %w", id, driven.ErrUserNotFound)
		}
	}

	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("update user %s: %w", id, driven.ErrUserNotFound)
	}

	return user, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var createdAt, updatedAt string

	err := s.Scan(&user.ID, &user.GitHubID, &user.Username, &user.AvatarURL,
		&user.AccessToken, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	user.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &user, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
