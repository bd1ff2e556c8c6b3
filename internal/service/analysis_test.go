package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/media"
	"github.com/shuoxuer/shuoxuer-website/internal/prompt"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type analysisFixture struct {
	svc       *AnalysisService
	providers *MockProviders
	provider  *MockLLMProvider
	sampler   *MockSampler
	store     *MockMediaStore
	archives  *jsonfile.ArchiveRepository
	history   *jsonfile.HistoryRepository
}

func newAnalysisFixture(t *testing.T, withStore bool) *analysisFixture {
	t.Helper()
	db, err := jsonfile.NewDB(t.TempDir())
	require.NoError(t, err)

	f := &analysisFixture{
		providers: new(MockProviders),
		provider:  new(MockLLMProvider),
		sampler:   new(MockSampler),
		store:     new(MockMediaStore),
		archives:  jsonfile.NewArchiveRepository(db),
		history:   jsonfile.NewHistoryRepository(db),
	}

	var store MediaStore
	if withStore {
		store = f.store
	}
	f.svc = NewAnalysisService(f.providers, f.sampler, prompt.NewBuilder(nil), f.archives, f.history, store)
	return f
}

func videoSample() *media.Sample {
	return &media.Sample{
		Frames: []media.Still{
			{Index: 0, MIMEType: "image/jpeg", Data: []byte{1}},
			{Index: 10, MIMEType: "image/jpeg", Data: []byte{2}},
		},
		Duration: 75.5,
	}
}

func TestAnalyzeVideo_Success(t *testing.T) {
	ctx := context.Background()
	f := newAnalysisFixture(t, true)

	f.providers.On("GetProvider", "").Return(f.provider, nil)
	f.sampler.On("Sample", ctx, mock.MatchedBy(func(src media.Source) bool {
		return src.Ext == ".mp4" && len(src.Data) == 3
	})).Return(videoSample(), nil)
	f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
		return req.Kind == llm.KindVideo &&
			len(req.Media) == 2 &&
			strings.HasPrefix(req.Prompt, "Video Duration: 75.50 seconds.\n")
	}), "").Return(&llm.Response{
		Content: "```json\n{\"analysis_report\": {\"pros\": [\"步法灵活\"]}}\n```",
	}, nil)
	f.store.On("Put", ctx, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "videos/") && strings.HasSuffix(name, ".mp4")
	}), []byte{1, 2, 3}, "video/mp4").Return("/uploads/videos/x.mp4", nil)

	res, err := f.svc.AnalyzeVideo(ctx, VideoInput{
		Upload:     Upload{Data: []byte{1, 2, 3}, Filename: "rally.MP4", ContentType: "video/mp4"},
		Strictness: 9,
		Style:      "aggressive",
	})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "/uploads/videos/x.mp4", res.MediaURL)
	assert.Equal(t, "Video (1:15)", res.Summary)

	report := res.Analysis["analysis_report"].(map[string]any)
	assert.Equal(t, "1:15", report["video_duration"])
	assert.Equal(t, "Video (1:15)", report["video_info"])
	assert.NotContains(t, res.Analysis, "media_url")

	archive, ok, err := f.archives.Get(ctx, res.ArchiveID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.AnalysisVideo, archive.Type)
	assert.Equal(t, "Video (1:15)", archive.Result)
	assert.Equal(t, "/uploads/videos/x.mp4", archive.Data["media_url"])

	history, err := f.history.List(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AnalysisVideo, history[0].Type)

	f.provider.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestAnalyzeVideo_Degraded(t *testing.T) {
	ctx := context.Background()
	f := newAnalysisFixture(t, false)

	f.providers.On("GetProvider", "qwen").Return(f.provider, nil)
	f.sampler.On("Sample", ctx, mock.Anything).Return(videoSample(), nil)
	f.provider.On("Generate", ctx, mock.Anything, "").Return(&llm.Response{Content: "I cannot see a badminton court."}, nil)

	res, err := f.svc.AnalyzeVideo(ctx, VideoInput{
		Upload:   Upload{Data: []byte{1}, Filename: "a.mov"},
		Provider: "qwen",
	})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "Parsing failed", res.Analysis["error"])
	assert.Equal(t, "I cannot see a badminton court.", res.Analysis["raw"])
	assert.Empty(t, res.ArchiveID)

	archives, err := f.archives.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, archives)
}

func TestAnalyzeVideo_KeepsNonObjectReport(t *testing.T) {
	ctx := context.Background()
	f := newAnalysisFixture(t, false)

	f.providers.On("GetProvider", "").Return(f.provider, nil)
	f.sampler.On("Sample", ctx, mock.Anything).Return(videoSample(), nil)
	f.provider.On("Generate", ctx, mock.Anything, "").Return(&llm.Response{
		Content: `{"analysis_report": "model summary text", "top_issues": []}`,
	}, nil)

	res, err := f.svc.AnalyzeVideo(ctx, VideoInput{Upload: Upload{Data: []byte{1}, Filename: "a.mp4"}})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "model summary text", res.Analysis["analysis_report"])

	archive, ok, err := f.archives.Get(ctx, res.ArchiveID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "model summary text", archive.Data["analysis_report"])
}

func TestStampDuration(t *testing.T) {
	missing := map[string]any{}
	stampDuration(missing, "0:42")
	assert.Equal(t, map[string]any{"video_duration": "0:42", "video_info": "Video (0:42)"}, missing["analysis_report"])

	existing := map[string]any{"analysis_report": map[string]any{"pros": []any{"步法灵活"}}}
	stampDuration(existing, "1:15")
	report := existing["analysis_report"].(map[string]any)
	assert.Equal(t, []any{"步法灵活"}, report["pros"])
	assert.Equal(t, "1:15", report["video_duration"])

	list := map[string]any{"analysis_report": []any{"a"}}
	stampDuration(list, "1:15")
	assert.Equal(t, []any{"a"}, list["analysis_report"])
}

func TestAnalyzeVideo_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		f := newAnalysisFixture(t, false)
		f.providers.On("GetProvider", "").Return(nil, domain.ErrNotConfigured)

		_, err := f.svc.AnalyzeVideo(ctx, VideoInput{Upload: Upload{Data: []byte{1}}})
		assert.ErrorIs(t, err, domain.ErrNotConfigured)
		f.sampler.AssertNotCalled(t, "Sample", mock.Anything, mock.Anything)
	})

	t.Run("no frames", func(t *testing.T) {
		f := newAnalysisFixture(t, false)
		f.providers.On("GetProvider", "").Return(f.provider, nil)
		f.sampler.On("Sample", ctx, mock.Anything).Return(nil, domain.ErrNoFrames)

		_, err := f.svc.AnalyzeVideo(ctx, VideoInput{Upload: Upload{Data: []byte{1}}})
		assert.ErrorIs(t, err, domain.ErrNoFrames)
		f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upstream", func(t *testing.T) {
		f := newAnalysisFixture(t, false)
		f.providers.On("GetProvider", "").Return(f.provider, nil)
		f.sampler.On("Sample", ctx, mock.Anything).Return(videoSample(), nil)
		f.provider.On("Generate", ctx, mock.Anything, "").
			Return(nil, &domain.UpstreamError{Provider: "mock", Err: errors.New("503")})

		_, err := f.svc.AnalyzeVideo(ctx, VideoInput{Upload: Upload{Data: []byte{1}}})
		var upstream *domain.UpstreamError
		assert.ErrorAs(t, err, &upstream)

		history, _ := f.history.List(ctx)
		assert.Empty(t, history)
	})
}

func TestAnalyzeVideo_StoreFailureStillArchives(t *testing.T) {
	ctx := context.Background()
	f := newAnalysisFixture(t, true)

	f.providers.On("GetProvider", "").Return(f.provider, nil)
	f.sampler.On("Sample", ctx, mock.Anything).Return(videoSample(), nil)
	f.provider.On("Generate", ctx, mock.Anything, "").Return(&llm.Response{Content: `{"top_issues": []}`}, nil)
	f.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket gone"))

	res, err := f.svc.AnalyzeVideo(ctx, VideoInput{Upload: Upload{Data: []byte{1}, Filename: "a.mp4"}})
	require.NoError(t, err)
	assert.Empty(t, res.MediaURL)

	archive, ok, err := f.archives.Get(ctx, res.ArchiveID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, archive.Data, "media_url")
	// duration is stamped even when the model omitted the report
	assert.Equal(t, "Video (1:15)", archive.Data["analysis_report"].(map[string]any)["video_info"])
}

func TestAnalyzePhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAnalysisFixture(t, false)
		f.providers.On("GetProvider", "").Return(f.provider, nil)
		f.provider.On("Generate", ctx, mock.MatchedBy(func(req llm.Request) bool {
			return req.Kind == llm.KindPhoto && len(req.Media) == 1 && req.Media[0].MIMEType == "image/png"
		}), "").Return(&llm.Response{Content: `{"total_score": 88, "one_line_summary": "清爽利落"}`}, nil)

		res, err := f.svc.AnalyzePhoto(ctx, PhotoInput{Upload: Upload{Data: pngHeader, Filename: "ootd.png"}})
		require.NoError(t, err)
		assert.Equal(t, domain.AnalysisStyle, res.Type)
		assert.Equal(t, "清爽利落", res.Summary)
		assert.Equal(t, float64(88), res.Analysis["total_score"])

		archive, ok, err := f.archives.Get(ctx, res.ArchiveID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, res.Analysis, archive.Data)
	})

	t.Run("not an image", func(t *testing.T) {
		f := newAnalysisFixture(t, false)
		f.providers.On("GetProvider", "").Return(f.provider, nil)

		_, err := f.svc.AnalyzePhoto(ctx, PhotoInput{Upload: Upload{Data: []byte("hello"), ContentType: "text/plain"}})
		assert.ErrorIs(t, err, domain.ErrMediaDecode)
	})
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		typ      domain.AnalysisType
		analysis map[string]any
		want     string
	}{
		{"video info", domain.AnalysisVideo, map[string]any{"analysis_report": map[string]any{"video_info": "Video (0:42)"}}, "Video (0:42)"},
		{"video fallback", domain.AnalysisVideo, map[string]any{}, "羽毛球视频分析"},
		{"wrapped", domain.AnalysisVideo, map[string]any{"analysis": map[string]any{"analysis_report": map[string]any{"video_info": "x"}}}, "x"},
		{"style summary", domain.AnalysisStyle, map[string]any{"one_line_summary": "帅"}, "帅"},
		{"style fallback", domain.AnalysisStyle, map[string]any{}, "穿搭分析"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.typ, tt.analysis))
		})
	}
}
