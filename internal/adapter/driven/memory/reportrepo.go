package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReportStore = (*ReportRepo)(nil)

// ReportRepo is the in-memory ReportStore for the development profile.
type ReportRepo struct {
	mu      sync.Mutex
	reports map[string]model.Report
}

// NewReportRepo creates an empty in-memory report store.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{reports: make(map[string]model.Report)}
}

// Create stores the report under a fresh id.
func (r *ReportRepo) Create(_ context.Context, report model.Report) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report.ID = uuid.NewString()
	report.GeneratedAt = time.Now().UTC()
	r.reports[report.ID] = report

	stored := report
	return &stored, nil
}

// ListByUser returns the user's reports, newest first.
func (r *ReportRepo) ListByUser(_ context.Context, userID string) ([]model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Report
	for _, report := range r.reports {
		if report.UserID == userID {
			out = append(out, report)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

// GetByIDForUser returns the report if it belongs to the user, else nil, nil.
func (r *ReportRepo) GetByIDForUser(_ context.Context, id, userID string) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.UserID != userID {
		return nil, nil
	}
	stored := report
	return &stored, nil
}

// DeleteByIDForUser deletes the report if it belongs to the user.
func (r *ReportRepo) DeleteByIDForUser(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.UserID != userID {
		return driven.ErrReportNotFound
	}
	delete(r.reports, id)
	return nil
}
