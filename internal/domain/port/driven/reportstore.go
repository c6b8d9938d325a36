package driven

import (
	"context"

	"github.com/commitdigest/commitdigest/internal/domain/model"
)

// ReportStore defines the driven port for report persistence. Reports are
// always scoped to their owning user; there is no cross-user read path.
type ReportStore interface {
	// Create persists a new report and returns it with id and timestamp set.
	Create(ctx context.Context, report model.Report) (*model.Report, error)

	// ListByUser returns all reports owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Report, error)

	// GetByIDForUser returns the report with the given id if it belongs to
	// the user. Returns nil, nil otherwise.
	GetByIDForUser(ctx context.Context, id, userID string) (*model.Report, error)

	// DeleteByIDForUser deletes the report with the given id if it belongs
	// to the user. Returns ErrReportNotFound otherwise.
	DeleteByIDForUser(ctx context.Context, id, userID string) error
}
