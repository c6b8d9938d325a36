package model

import (
	"encoding/json"
	"time"
)

// Report is one generated activity report, persisted per user. Content is
// the structured JSON document produced by the LLM provider, stored verbatim.
type Report struct {
	ID             string
	UserID         string
	RepositoryName string
	Content        json.RawMessage
	GeneratedAt    time.Time
}

// Title extracts a human-readable title from the report content for list
// views. It tolerates older content shapes where the summary was a plain
// string or the title lived at the top level.
func (r Report) Title() string {
	var content struct {
		Summary json.RawMessage `json:"summary"`
		Title   string          `json:"title"`
	}
	if err := json.Unmarshal(r.Content, &content); err != nil {
		return "Report generated"
	}

	if len(content.Summary) > 0 {
		var summary struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(content.Summary, &summary); err == nil && summary.Title != "" {
			return summary.Title
		}
		var plain string
		if err := json.Unmarshal(content.Summary, &plain); err == nil && plain != "" {
			return plain
		}
	}

	if content.Title != "" {
		return content.Title
	}
	return "Report generated"
}
