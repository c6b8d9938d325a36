package model

// Repository is a GitHub repository visible to the authenticated user,
// either owned or reachable through an organization membership.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch"`
	Owner         RepoOwner `json:"owner"`
}

// RepoOwner is the owning account of a repository.
type RepoOwner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}
