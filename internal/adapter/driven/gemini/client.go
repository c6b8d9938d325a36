// Package gemini implements the ReportGenerator port against the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/commitdigest/commitdigest/internal/domain/port/driven"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrEmptyResponse is returned when the model produces no candidates.
var ErrEmptyResponse = errors.New("gemini: empty response")

// ErrInvalidJSON is returned when the model output is not a JSON document,
// despite the application/json response mime type being requested.
var ErrInvalidJSON = errors.New("gemini: response is not valid JSON")

// Compile-time interface satisfaction check.
var _ driven.ReportGenerator = (*Client)(nil)

// Client calls the generateContent endpoint of a single Gemini model.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a report generator for the given API key and model name.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// Report generation over a large commit payload can take a while;
		// the timeout is a safety net alongside context cancellation.
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewClientWithHTTPClient creates a Client pointed at a test server.
func NewClientWithHTTPClient(apiKey, model, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// generateRequest is the JSON body sent to the generateContent endpoint.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

// generateResponse represents the subset of the generateContent response we
// inspect: the first candidate's text parts and any top-level error.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the commit history to the model and returns the structured
// report document it produces. The output is validated to be a JSON document
// but its schema is otherwise passed through untouched.
func (c *Client) Generate(ctx context.Context, commitsMarkdown string) (json.RawMessage, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: buildPrompt(commitsMarkdown)}}},
		},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			// Low temperature keeps the report factual and schema-stable.
			Temperature: 0.2,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	slog.Debug("generating report", "model", c.model, "payload_bytes", len(commitsMarkdown))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling gemini: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr generateResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini: HTTP %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	// Models can split long output across multiple parts.
	var text string
	for _, p := range genResp.Candidates[0].Content.Parts {
		text += p.Text
	}

	if !json.Valid([]byte(text)) {
		slog.Warn("gemini returned non-JSON output", "model", c.model, "bytes", len(text))
		return nil, ErrInvalidJSON
	}

	return json.RawMessage(text), nil
}

// buildPrompt frames the commit history as input for a structured PT-BR
// daily report, fixing the output schema in the prompt itself.
func buildPrompt(commitsMarkdown string) string {
	return fmt.Sprintf(`You are a Technical Lead and Senior Code Reviewer.
Your task is to analyze a raw git commit history and produce a structured JSON report in Portuguese (PT-BR).

### INPUT DATA:
%s

### INSTRUCTIONS:
1. **Deduplication**: If multiple commits refer to the same logical task (e.g., "fix button", "fix button again", "button styling"), merge them into a single coherent entry.
2. **Translation**: Output all descriptions in professional Portuguese (PT-BR). Keep technical terms (e.g., "Deploy", "Request", "Middleware") in English if they are standard.
3. **Analysis**: Infer the 'effort_level' based on the complexity and number of changes.
4. **Impact**: Identify if a change is 'Critical' (breaks/fixes logic), 'Major' (new feature), or 'Minor' (typo/style).

### OUTPUT SCHEMA (Strict JSON):
You must follow this exact TypeScript interface structure:

{
  "meta": {
    "date_context": "YYYY-MM-DD (today)",
    "primary_language": "Detected language (e.g., TypeScript, Python)",
    "effort_level": "Low" | "Medium" | "High"
  },
  "summary": {
    "title": "A catchy, short title for the day's work (e.g., 'Refatoração do Módulo de Auth')",
    "executive_overview": "A 2-3 sentence paragraph summarizing the business value delivered.",
    "technical_highlights": ["List of major technical decisions or libraries added"]
  },
  "groups": [
    {
      "category": "Features" | "Fixes" | "Refactor" | "Chore" | "Docs",
      "icon": "Emoji representing the category",
      "items": [
        {
          "description": "Clean, professional description of the task",
          "impact": "Critical" | "Major" | "Minor",
          "original_commits_count": Number (count of raw commits condensed into this item)
        }
      ]
    }
  ]
}`, commitsMarkdown)
}
