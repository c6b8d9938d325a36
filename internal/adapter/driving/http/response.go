package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/commitdigest/commitdigest/internal/application"
	"github.com/commitdigest/commitdigest/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// GenerateReportRequest is the JSON body for the report generation endpoint.
type GenerateReportRequest struct {
	RepositoryName string         `json:"repositoryName"`
	Commits        []model.Commit `json:"commits"`
}

// ReportResponse is the JSON representation of a full report.
type ReportResponse struct {
	ID             string          `json:"id"`
	RepositoryName string          `json:"repositoryName"`
	Content        json.RawMessage `json:"content"`
	GeneratedAt    string          `json:"generatedAt"`
}

// ReportListResponse is the JSON body of the report history endpoint.
type ReportListResponse struct {
	Data  []application.ReportSummary `json:"data"`
	Total int                         `json:"total"`
}

// CommitsResponse pairs one page of commits with its paging hint.
type CommitsResponse struct {
	Data []model.Commit `json:"data"`
	Page int            `json:"page"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toReportResponse converts a domain Report to its JSON representation.
func toReportResponse(report model.Report) ReportResponse {
	return ReportResponse{
		ID:             report.ID,
		RepositoryName: report.RepositoryName,
		Content:        report.Content,
		GeneratedAt:    report.GeneratedAt.UTC().Format(time.RFC3339),
	}
}
