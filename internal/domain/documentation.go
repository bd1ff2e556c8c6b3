package domain

import "context"

// DetailedDescriptionSection is the section that receives extracted knowledge notes
const DetailedDescriptionSection = "详细说明"

// DocSection is a named block of a documentation entry
type DocSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentationEntry is a curated technique document
type DocumentationEntry struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Tags     []string     `json:"tags"`
	Sections []DocSection `json:"sections"`
}

// DocumentationRepository defines the interface for documentation storage
type DocumentationRepository interface {
	List(ctx context.Context) ([]DocumentationEntry, error)
	Get(ctx context.Context, id string) (*DocumentationEntry, bool, error)
	Search(ctx context.Context, query string) ([]DocumentationEntry, error)
	FindMatching(ctx context.Context, topic string) (*DocumentationEntry, bool, error)
	UpdateSection(ctx context.Context, id, title, content string, appendContent bool) (bool, error)
}
