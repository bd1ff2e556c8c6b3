package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// minutesPerVideo is the training time credited for each analyzed video
const minutesPerVideo = 10

var defaultFocusAreas = []string{"基础动作", "体能储备", "战术意识"}

// DashboardStats aggregates the analysis history for the dashboard
type DashboardStats struct {
	TotalTrainingTime int            `json:"total_training_time"`
	FocusAreas        []string       `json:"focus_areas"`
	StyleScore        int            `json:"style_score"`
	RecentRecords     []RecentRecord `json:"recent_records"`
}

// RecentRecord is one row of the dashboard's recent activity list
type RecentRecord struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Type   string `json:"type"`
	Result string `json:"result"`
}

// StatsService computes dashboard statistics
type StatsService struct {
	history domain.HistoryRepository
}

// NewStatsService creates a new stats service
func NewStatsService(history domain.HistoryRepository) *StatsService {
	return &StatsService{history: history}
}

// Dashboard computes the dashboard statistics from the analysis history
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	records, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		FocusAreas:    []string{},
		RecentRecords: []RecentRecord{},
	}

	videos := 0
	var issues []string
	var scoreSum float64
	scores := 0

	for _, rec := range records {
		data := unwrapAnalysis(rec.Data)
		switch rec.Type {
		case domain.AnalysisVideo:
			videos++
			issues = append(issues, videoIssues(data)...)
		case domain.AnalysisStyle:
			if score, ok := number(data["total_score"]); ok {
				scoreSum += score
				scores++
			}
		}
	}

	stats.TotalTrainingTime = videos * minutesPerVideo
	stats.FocusAreas = topFrequent(issues, 5)
	if len(stats.FocusAreas) == 0 && videos > 0 {
		stats.FocusAreas = append([]string(nil), defaultFocusAreas...)
	}
	if scores > 0 {
		stats.StyleScore = int(scoreSum / float64(scores))
	}

	for i, rec := range records {
		if i == 5 {
			break
		}
		stats.RecentRecords = append(stats.RecentRecords, recentRecord(rec))
	}

	return stats, nil
}

// videoIssues returns the cleaned top issue tags of a video analysis, or its
// cons when no issues were reported
func videoIssues(data map[string]any) []string {
	var out []string
	if list, ok := data["top_issues"].([]any); ok {
		for _, item := range list {
			issue, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if tag, ok := issue["tag_name"].(string); ok {
				tag, _, _ = strings.Cut(tag, "(")
				out = append(out, strings.TrimSpace(tag))
			}
		}
		return out
	}

	if report, ok := data["analysis_report"].(map[string]any); ok {
		if cons, ok := report["cons"].([]any); ok {
			for _, c := range cons {
				if s, ok := c.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func recentRecord(rec domain.HistoryRecord) RecentRecord {
	r := RecentRecord{
		ID:     rec.ID,
		Date:   rec.CreatedAt.Format("2006-01-02"),
		Type:   "穿搭分析",
		Result: "分析完成",
	}

	data := unwrapAnalysis(rec.Data)
	switch rec.Type {
	case domain.AnalysisVideo:
		r.Type = "视频分析"
		if report, ok := data["analysis_report"].(map[string]any); ok {
			info, ok := report["video_info"].(string)
			if !ok {
				info = "羽毛球视频"
			}
			if short, cut := truncateRunes(info, 15); cut {
				info = short + "..."
			}
			r.Result = info
		}
	case domain.AnalysisStyle:
		if s, ok := data["one_line_summary"].(string); ok {
			short, _ := truncateRunes(s, 15)
			r.Result = short + "..."
		} else if s, ok := data["message"].(string); ok {
			short, _ := truncateRunes(s, 10)
			r.Result = short + "..."
		}
	}
	return r
}

// topFrequent returns up to n values by descending count; ties keep first
// appearance order
func topFrequent(values []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		return []string{}
	}
	return order
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
