package domain

import (
	"context"
	"time"
)

// AnalysisType distinguishes the two analysis pipelines
type AnalysisType string

const (
	AnalysisVideo AnalysisType = "video"
	AnalysisStyle AnalysisType = "style"
)

// Archive is a permanently retained analysis result
type Archive struct {
	ID        string         `json:"id"`
	Type      AnalysisType   `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Result    string         `json:"result"`
	Data      map[string]any `json:"data"`
}

// ArchiveRepository defines the interface for archive storage
type ArchiveRepository interface {
	Save(ctx context.Context, typ AnalysisType, result string, data map[string]any) (*Archive, error)
	Get(ctx context.Context, id string) (*Archive, bool, error)
	List(ctx context.Context) ([]Archive, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// HistoryRecord is an entry of the legacy combined analysis history
type HistoryRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Type      AnalysisType   `json:"type"`
	Data      map[string]any `json:"data"`
}

// HistoryRepository defines the interface for the legacy history log
type HistoryRepository interface {
	Append(ctx context.Context, typ AnalysisType, data map[string]any) (*HistoryRecord, error)
	List(ctx context.Context) ([]HistoryRecord, error)
}
