package driven

import (
	"context"
	"encoding/json"
)

// ReportGenerator defines the driven port for the LLM provider that turns a
// formatted commit history into a structured report document.
type ReportGenerator interface {
	// Generate produces the structured report JSON for the given markdown
	// rendering of the selected commits.
	Generate(ctx context.Context, commitsMarkdown string) (json.RawMessage, error)
}
