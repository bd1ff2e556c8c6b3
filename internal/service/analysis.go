package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/llm"
	"github.com/shuoxuer/shuoxuer-website/internal/media"
	"github.com/shuoxuer/shuoxuer-website/internal/metrics"
	"github.com/shuoxuer/shuoxuer-website/internal/prompt"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/objectstore"
)

// VideoSampler extracts frames from an uploaded video
type VideoSampler interface {
	Sample(ctx context.Context, src media.Source) (*media.Sample, error)
}

// AnalysisService runs the video and style analysis pipelines
type AnalysisService struct {
	providers ProviderSource
	sampler   VideoSampler
	builder   *prompt.Builder
	archives  domain.ArchiveRepository
	history   domain.HistoryRepository
	store     MediaStore
	now       func() time.Time
}

// NewAnalysisService creates a new analysis service. store may be nil, in
// which case uploads are not kept.
func NewAnalysisService(
	providers ProviderSource,
	sampler VideoSampler,
	builder *prompt.Builder,
	archives domain.ArchiveRepository,
	history domain.HistoryRepository,
	store MediaStore,
) *AnalysisService {
	return &AnalysisService{
		providers: providers,
		sampler:   sampler,
		builder:   builder,
		archives:  archives,
		history:   history,
		store:     store,
		now:       time.Now,
	}
}

// VideoInput holds a video analysis request
type VideoInput struct {
	Upload
	// Coach is accepted for compatibility; all three coaches always speak
	Coach      string
	Strictness int
	Style      string
	Provider   string
}

// PhotoInput holds a style analysis request
type PhotoInput struct {
	Upload
	Provider string
}

// AnalysisResult is returned by both pipelines. A degraded result carries
// the parse failure in Analysis and is not archived.
type AnalysisResult struct {
	Type      domain.AnalysisType `json:"-"`
	Analysis  map[string]any      `json:"analysis"`
	ArchiveID string              `json:"archive_id,omitempty"`
	MediaURL  string              `json:"media_url,omitempty"`
	Summary   string              `json:"summary,omitempty"`
	Degraded  bool                `json:"degraded,omitempty"`
}

// AnalyzeVideo samples the video, asks the model for a structured report,
// stamps the measured duration into it and archives the result
func (s *AnalysisService) AnalyzeVideo(ctx context.Context, in VideoInput) (*AnalysisResult, error) {
	res, err := s.analyzeVideo(ctx, in)
	s.record(domain.AnalysisVideo, res, err)
	return res, err
}

func (s *AnalysisService) analyzeVideo(ctx context.Context, in VideoInput) (*AnalysisResult, error) {
	provider, err := s.providers.GetProvider(in.Provider)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	sample, err := s.sampler.Sample(ctx, media.Source{Data: in.Data, Ext: ext})
	if err != nil {
		return nil, err
	}

	params := prompt.Params{
		Strictness:      in.Strictness,
		Style:           in.Style,
		DurationSeconds: sample.Duration,
	}

	frames := make([]llm.Media, 0, len(sample.Frames))
	for _, f := range sample.Frames {
		frames = append(frames, llm.Media{MIMEType: f.MIMEType, Data: f.Data})
	}

	log.Info().
		Str("provider", provider.Name()).
		Int("frames", len(frames)).
		Str("duration", sample.DurationLabel()).
		Msg("Starting video analysis")

	n, _, err := complete(ctx, provider, llm.Request{
		Kind:   llm.KindVideo,
		Prompt: s.builder.Build(prompt.VideoAnalysis, params),
		Media:  frames,
	})
	if err != nil {
		return nil, err
	}
	if !n.OK() {
		return degraded(domain.AnalysisVideo, n), nil
	}

	stampDuration(n.Data, sample.DurationLabel())
	return s.persist(ctx, domain.AnalysisVideo, n.Data, in.Upload, "videos")
}

// AnalyzePhoto asks the model to rate a sports outfit photo
func (s *AnalysisService) AnalyzePhoto(ctx context.Context, in PhotoInput) (*AnalysisResult, error) {
	res, err := s.analyzePhoto(ctx, in)
	s.record(domain.AnalysisStyle, res, err)
	return res, err
}

func (s *AnalysisService) analyzePhoto(ctx context.Context, in PhotoInput) (*AnalysisResult, error) {
	provider, err := s.providers.GetProvider(in.Provider)
	if err != nil {
		return nil, err
	}

	still, err := media.Photo(in.Data, in.ContentType)
	if err != nil {
		return nil, err
	}

	log.Info().Str("provider", provider.Name()).Str("mime", still.MIMEType).Msg("Starting style analysis")

	n, _, err := complete(ctx, provider, llm.Request{
		Kind:   llm.KindPhoto,
		Prompt: s.builder.Build(prompt.StyleAnalysis, prompt.DefaultParams()),
		Media:  []llm.Media{{MIMEType: still.MIMEType, Data: still.Data}},
	})
	if err != nil {
		return nil, err
	}
	if !n.OK() {
		return degraded(domain.AnalysisStyle, n), nil
	}

	upload := in.Upload
	upload.ContentType = still.MIMEType
	return s.persist(ctx, domain.AnalysisStyle, n.Data, upload, "photos")
}

// persist stores the upload, then appends the archive and the history record
func (s *AnalysisService) persist(ctx context.Context, typ domain.AnalysisType, analysis map[string]any, up Upload, kind string) (*AnalysisResult, error) {
	res := &AnalysisResult{
		Type:     typ,
		Analysis: analysis,
		Summary:  Summarize(typ, analysis),
	}

	if s.store != nil {
		name := objectstore.ObjectName(kind, up.Filename, up.ContentType, s.now())
		url, err := s.store.Put(ctx, name, up.Data, up.ContentType)
		if err != nil {
			log.Warn().Err(err).Str("object", name).Msg("Failed to store upload")
		} else {
			res.MediaURL = url
		}
	}

	data := make(map[string]any, len(analysis)+1)
	for k, v := range analysis {
		data[k] = v
	}
	if res.MediaURL != "" {
		data["media_url"] = res.MediaURL
	}

	archive, err := s.archives.Save(ctx, typ, res.Summary, data)
	if err != nil {
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}
	res.ArchiveID = archive.ID

	if _, err := s.history.Append(ctx, typ, analysis); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	log.Info().Str("type", string(typ)).Str("archive_id", archive.ID).Msg("Analysis archived")
	return res, nil
}

func (s *AnalysisService) record(typ domain.AnalysisType, res *AnalysisResult, err error) {
	outcome := outcomeLabel(err)
	if err == nil && res != nil && res.Degraded {
		outcome = "degraded"
	}
	metrics.AnalysesTotal.WithLabelValues(string(typ), outcome).Inc()
}

func degraded(typ domain.AnalysisType, n *llm.Normalized) *AnalysisResult {
	return &AnalysisResult{
		Type: typ,
		Analysis: map[string]any{
			"error": "Parsing failed",
			"raw":   n.Failure.Raw,
		},
		Degraded: true,
	}
}

// stampDuration writes the measured duration into analysis_report. A report
// the model returned as anything other than an object is kept as is.
func stampDuration(analysis map[string]any, label string) {
	var report map[string]any
	switch v := analysis["analysis_report"].(type) {
	case nil:
		report = map[string]any{}
		analysis["analysis_report"] = report
	case map[string]any:
		report = v
	default:
		log.Warn().Type("analysis_report", v).Msg("analysis_report is not an object, duration not stamped")
		return
	}
	report["video_duration"] = label
	report["video_info"] = fmt.Sprintf("Video (%s)", label)
}
