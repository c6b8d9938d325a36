package model

// Commit is one commit as returned by the GitHub commits listing, optionally
// enriched with stats and file patches before report generation.
type Commit struct {
	SHA     string        `json:"sha"`
	Message string        `json:"message"`
	Author  *CommitAuthor `json:"author"`
	URL     string        `json:"url"`
	Stats   *CommitStats  `json:"stats,omitempty"`
	Files   []CommitFile  `json:"files,omitempty"`
}

// CommitAuthor identifies who wrote a commit. Nil on commits whose author
// GitHub could not resolve.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// CommitStats are the aggregate line counts for one commit.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// CommitFile is one changed file within a commit. Patch may be empty for
// binary or oversized diffs.
type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}
