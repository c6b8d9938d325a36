// Package httphandler is the HTTP driving adapter serving the JSON API and
// the OAuth login flow.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/commitdigest/commitdigest/internal/application"
	"github.com/commitdigest/commitdigest/internal/auth"
	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
	"github.com/commitdigest/commitdigest/internal/metrics"
)

// stateCookie carries the OAuth state nonce between the authorize redirect
// and the callback.
const stateCookie = "oauth_state"

// stateTTL bounds how long a pending login may take.
const stateTTL = 10 * time.Minute

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	authSvc       *application.AuthService
	reportSvc     *application.ReportService
	oauth         *auth.GitHubOAuth
	clientFactory driven.GitHubClientFactory
	frontendURL   string
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	authSvc *application.AuthService,
	reportSvc *application.ReportService,
	oauth *auth.GitHubOAuth,
	clientFactory driven.GitHubClientFactory,
	frontendURL string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authSvc:       authSvc,
		reportSvc:     reportSvc,
		oauth:         oauth,
		clientFactory: clientFactory,
		frontendURL:   frontendURL,
		metrics:       m,
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with auth, metrics, logging and recovery middleware.
func NewServeMux(h *Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/github", h.Login)
	mux.HandleFunc("GET /auth/github/callback", h.LoginCallback)
	mux.HandleFunc("GET /auth/me", h.Me)
	mux.HandleFunc("GET /auth/logout", h.Logout)

	mux.HandleFunc("GET /api/v1/github/repositories", h.ListRepositories)
	mux.HandleFunc("GET /api/v1/github/{owner}/{repo}/branches", h.ListBranches)
	mux.HandleFunc("GET /api/v1/github/commits", h.ListCommits)
	mux.HandleFunc("POST /api/v1/github/report", h.GenerateReport)

	mux.HandleFunc("GET /api/v1/reports", h.ListReports)
	mux.HandleFunc("GET /api/v1/reports/{id}", h.GetReport)
	mux.HandleFunc("DELETE /api/v1/reports/{id}", h.DeleteReport)

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", m.Handler())

	// Recovery innermost so panics are caught before the outer layers
	// record the request.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = authMiddleware(h.authSvc, logger, wrapped)
	wrapped = metricsMiddleware(m, mux, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Login starts the OAuth flow: it stores a state nonce in a short-lived
// cookie and redirects the browser to the GitHub authorize page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusFound)
}

// LoginCallback finishes the OAuth flow. Every failure path redirects back
// to the frontend with an error code so the browser never hangs on a JSON
// error it cannot render.
func (h *Handler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	clearStateCookie(w)

	if ghErr := r.URL.Query().Get("error"); ghErr != "" {
		h.logger.Warn("oauth provider returned error", "error", ghErr)
		h.metrics.RecordLogin("denied")
		h.redirectWithError(w, r, "access_denied")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || state == "" || cookie.Value != state {
		h.logger.Warn("oauth state mismatch")
		h.metrics.RecordLogin("state_mismatch")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.metrics.RecordLogin("error")
		h.redirectWithError(w, r, "missing_code")
		return
	}

	profile, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err)
		h.metrics.RecordLogin("error")
		if errors.Is(err, auth.ErrInvalidProfile) {
			h.redirectWithError(w, r, "invalid_profile")
			return
		}
		h.redirectWithError(w, r, "exchange_failed")
		return
	}

	result, err := h.authSvc.Login(r.Context(), profile)
	if err != nil {
		h.logger.Error("login failed", "github_id", profile.GitHubID, "error", err)
		h.metrics.RecordLogin("error")
		h.redirectWithError(w, r, "login_failed")
		return
	}

	h.metrics.RecordLogin("success")
	http.Redirect(w, r, h.frontendURL+"/auth/callback?token="+url.QueryEscape(result.Token), http.StatusFound)
}

// Me returns the public projection of the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()).Public())
}

// Logout sends the browser back to the frontend. Sessions are stateless, so
// the frontend discarding its token is the logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// ListRepositories returns the caller's repositories, own and organizational.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	client := h.clientFactory(user.AccessToken)

	repos, err := client.ListUserRepos(r.Context())
	if err != nil {
		h.writeGitHubError(w, err, "failed to list repositories")
		return
	}

	writeJSON(w, http.StatusOK, repos)
}

// ListBranches returns the branch names of one repository.
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	client := h.clientFactory(user.AccessToken)
	branches, err := client.ListBranches(r.Context(), owner, repo)
	if err != nil {
		h.writeGitHubError(w, err, "failed to list branches")
		return
	}

	writeJSON(w, http.StatusOK, branches)
}

// ListCommits returns one page of commits for a repository and branch.
func (h *Handler) ListCommits(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	query := r.URL.Query()
	owner := query.Get("owner")
	repo := query.Get("repo")
	if owner == "" || repo == "" {
		writeError(w, http.StatusBadRequest, "owner and repo query parameters are required")
		return
	}

	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = parsed
	}

	client := h.clientFactory(user.AccessToken)
	commits, err := client.ListCommits(r.Context(), owner, repo, query.Get("branch"), page)
	if err != nil {
		h.writeGitHubError(w, err, "failed to list commits")
		return
	}

	writeJSON(w, http.StatusOK, CommitsResponse{Data: commits, Page: page})
}

// GenerateReport produces and persists an AI report over the submitted
// commit selection.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RepositoryName == "" {
		writeError(w, http.StatusBadRequest, "repositoryName is required")
		return
	}
	if len(req.Commits) == 0 {
		writeError(w, http.StatusBadRequest, "commits must not be empty")
		return
	}

	report, err := h.reportSvc.Generate(r.Context(), user, req.RepositoryName, req.Commits)
	if err != nil {
		h.logger.Error("report generation failed",
			"user_id", user.ID,
			"repository", req.RepositoryName,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	writeJSON(w, http.StatusCreated, toReportResponse(*report))
}

// ListReports returns the caller's report history as summaries.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	summaries, err := h.reportSvc.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list reports", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ReportListResponse{Data: summaries, Total: len(summaries)})
}

// GetReport returns one of the caller's reports with its full content.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id := r.PathValue("id")

	report, err := h.reportSvc.Get(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, driven.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.logger.Error("failed to get report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(*report))
}

// DeleteReport removes one of the caller's reports.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id := r.PathValue("id")

	if err := h.reportSvc.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, driven.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		h.logger.Error("failed to delete report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a liveness signal.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeGitHubError maps GitHub port sentinels onto response codes. Anything
// unexpected from the upstream API surfaces as a bad gateway.
func (h *Handler) writeGitHubError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, driven.ErrForbidden):
		writeError(w, http.StatusForbidden, "github access forbidden or rate limited")
	default:
		h.logger.Error(message, "error", err)
		writeError(w, http.StatusBadGateway, message)
	}
}

// redirectWithError sends the browser back to the frontend callback page
// with a machine-readable error code.
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendURL+"/auth/callback?error="+url.QueryEscape(code), http.StatusFound)
}

// clearStateCookie expires the state cookie; it is single-use.
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth/github",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
