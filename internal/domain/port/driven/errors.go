package driven

import "errors"

// Sentinel errors shared across driven adapters. Adapters wrap these with
// context; callers test with errors.Is.
var (
	// ErrUserNotFound is returned by user mutations targeting a missing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrReportNotFound is returned when a report does not exist or belongs
	// to a different user.
	ErrReportNotFound = errors.New("report not found")

	// ErrNotFound maps GitHub API 404 responses (unknown repo or ref).
	ErrNotFound = errors.New("github resource not found")

	// ErrForbidden maps GitHub API 403 responses (rate limited or no access).
	ErrForbidden = errors.New("github access forbidden")
)
