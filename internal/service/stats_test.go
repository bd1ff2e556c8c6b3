package service

import (
	"context"
	"testing"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Append(ctx context.Context, typ domain.AnalysisType, data map[string]any) (*domain.HistoryRecord, error) {
	args := m.Called(ctx, typ, data)
	return args.Get(0).(*domain.HistoryRecord), args.Error(1)
}

func (m *MockHistory) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.HistoryRecord), args.Error(1)
}

func issue(tag string) map[string]any {
	return map[string]any{"tag_name": tag}
}

func TestStatsService_Dashboard(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 3, 5, 22, 10, 0, 0, time.UTC)

	records := []domain.HistoryRecord{
		{ID: "6", Type: domain.AnalysisVideo, CreatedAt: day, Data: map[string]any{
			"top_issues": []any{issue("步法 (Footwork)"), issue("挥拍")},
			"analysis_report": map[string]any{"video_info": "Video (1:15)"},
		}},
		{ID: "5", Type: domain.AnalysisStyle, CreatedAt: day, Data: map[string]any{
			"total_score":      float64(80),
			"one_line_summary": "非常适合高强度对抗的一身装备搭配",
		}},
		{ID: "4", Type: domain.AnalysisVideo, CreatedAt: day, Data: map[string]any{
			"analysis": map[string]any{
				"top_issues": []any{issue("步法(Footwork)")},
			},
		}},
		{ID: "3", Type: domain.AnalysisStyle, CreatedAt: day, Data: map[string]any{
			"total_score": float64(91),
			"message":     "这张照片里没有检测到运动装备",
		}},
		{ID: "2", Type: domain.AnalysisVideo, CreatedAt: day, Data: map[string]any{
			"analysis_report": map[string]any{"cons": []any{"重心偏高", "挥拍"}},
		}},
		{ID: "1", Type: domain.AnalysisStyle, CreatedAt: day, Data: map[string]any{}},
	}

	history := new(MockHistory)
	history.On("List", ctx).Return(records, nil)

	stats, err := NewStatsService(history).Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 30, stats.TotalTrainingTime)
	assert.Equal(t, []string{"步法", "挥拍", "重心偏高"}, stats.FocusAreas)
	assert.Equal(t, 85, stats.StyleScore)

	require.Len(t, stats.RecentRecords, 5)
	assert.Equal(t, RecentRecord{ID: "6", Date: "2025-03-05", Type: "视频分析", Result: "Video (1:15)"}, stats.RecentRecords[0])
	assert.Equal(t, "非常适合高强度对抗的一身装备搭...", stats.RecentRecords[1].Result)
	assert.Equal(t, "穿搭分析", stats.RecentRecords[1].Type)
	assert.Equal(t, "分析完成", stats.RecentRecords[2].Result)
	assert.Equal(t, "这张照片里没有检测到...", stats.RecentRecords[3].Result)
	assert.Equal(t, "羽毛球视频", stats.RecentRecords[4].Result)
}

func TestStatsService_Fallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		history := new(MockHistory)
		history.On("List", ctx).Return([]domain.HistoryRecord{}, nil)

		stats, err := NewStatsService(history).Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalTrainingTime)
		assert.Equal(t, []string{}, stats.FocusAreas)
		assert.Equal(t, []RecentRecord{}, stats.RecentRecords)
	})

	t.Run("videos without issues", func(t *testing.T) {
		history := new(MockHistory)
		history.On("List", ctx).Return([]domain.HistoryRecord{
			{ID: "1", Type: domain.AnalysisVideo, Data: map[string]any{}},
		}, nil)

		stats, err := NewStatsService(history).Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"基础动作", "体能储备", "战术意识"}, stats.FocusAreas)
		assert.Equal(t, 0, stats.StyleScore)
	})
}

func TestTopFrequent(t *testing.T) {
	values := []string{"a", "b", "c", "b", "d", "e", "f", "c", "b"}
	assert.Equal(t, []string{"b", "c", "a", "d", "e"}, topFrequent(values, 5))
	assert.Equal(t, []string{}, topFrequent(nil, 5))
}
