package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/commitdigest/commitdigest/internal/domain/model"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReportStore = (*ReportRepo)(nil)

// ReportRepo is the SQLite implementation of the ReportStore port interface.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a new ReportRepo backed by the given DB.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create persists a new report and returns it with id and timestamp set.
func (r *ReportRepo) Create(ctx context.Context, report model.Report) (*model.Report, error) {
	const query = `INSERT INTO reports (id, user_id, repository_name, content, generated_at)
		VALUES (?, ?, ?, ?, ?)`

	report.ID = uuid.NewString()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		report.ID, report.UserID, report.RepositoryName,
		string(report.Content), report.GeneratedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("create report for user %s: %w", report.UserID, err)
	}

	return &report, nil
}

// ListByUser returns all reports owned by the user, newest first.
func (r *ReportRepo) ListByUser(ctx context.Context, userID string) ([]model.Report, error) {
	const query = `SELECT id, user_id, repository_name, content, generated_at
		FROM reports WHERE user_id = ? ORDER BY generated_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reports for user %s: %w", userID, err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

// GetByIDForUser returns the report with the given id if it belongs to the
// user. Returns nil, nil otherwise.
func (r *ReportRepo) GetByIDForUser(ctx context.Context, id, userID string) (*model.Report, error) {
	const query = `SELECT id, user_id, repository_name, content, generated_at
		FROM reports WHERE id = ? AND user_id = ?`

	report, err := scanReport(r.db.Reader.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	return report, nil
}

// DeleteByIDForUser deletes the report with the given id if it belongs to
// the user.
func (r *ReportRepo) DeleteByIDForUser(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM reports WHERE id = ? AND user_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete report %s: %w", id, driven.ErrReportNotFound)
	}

	return nil
}

func scanReport(s scanner) (*model.Report, error) {
	var report model.Report
	var content, generatedAt string

	err := s.Scan(&report.ID, &report.UserID, &report.RepositoryName, &content, &generatedAt)
	if err != nil {
		return nil, err
	}

	report.Content = json.RawMessage(content)
	report.GeneratedAt, err = parseTime(generatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}

	return &report, nil
}
