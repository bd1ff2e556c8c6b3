package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ProbeInfo describes the decodable video stream of a file
type ProbeInfo struct {
	FrameCount int
	FPS        float64
}

// FrameDecoder reads stream metadata and individual frames from a video file
type FrameDecoder interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
	Frame(ctx context.Context, path string, index int) (image.Image, error)
}

// Source is either an in-memory upload or a file owned by the caller
type Source struct {
	Path string
	Data []byte
	// Ext is the temp file extension used for Data, e.g. ".mp4"
	Ext string
}

// Still is a single encoded image sent to a model
type Still struct {
	Index    int
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes
func (s Still) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// DataURL returns the image as a data: URL
func (s Still) DataURL() string {
	return "data:" + s.MIMEType + ";base64," + s.Base64()
}

// Sample is the result of sampling a video
type Sample struct {
	Frames   []Still
	Duration float64
}

// DurationLabel renders the duration as M:SS
func (s *Sample) DurationLabel() string {
	return FormatDuration(s.Duration)
}

// Options controls sampling
type Options struct {
	Frames      int
	Width       int
	Height      int
	JPEGQuality int
	Workers     int
}

func (o *Options) withDefaults() {
	if o.Frames <= 0 {
		o.Frames = 10
	}
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 360
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 85
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
}

// Sampler extracts evenly spaced, bounded-resolution frames from videos
type Sampler struct {
	decoder FrameDecoder
	opts    Options
}

// NewSampler creates a new sampler
func NewSampler(decoder FrameDecoder, opts Options) *Sampler {
	opts.withDefaults()
	return &Sampler{decoder: decoder, opts: opts}
}

// Sample decodes up to the configured number of frames from src.
// It returns domain.ErrNoFrames when nothing could be decoded.
func (s *Sampler) Sample(ctx context.Context, src Source) (*Sample, error) {
	path := src.Path
	if path == "" {
		if len(src.Data) == 0 {
			return nil, domain.ErrMediaDecode
		}
		tmp, err := writeTemp(src.Data, src.Ext)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	info, err := s.decoder.Probe(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Msg("video probe failed")
		return nil, domain.ErrNoFrames
	}

	sample := &Sample{}
	if info.FrameCount > 0 && info.FPS > 0 {
		sample.Duration = float64(info.FrameCount) / info.FPS
	}

	indices := FrameIndices(info.FrameCount, s.opts.Frames)
	stills := make([]*Still, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, index := range indices {
		i, index := i, index
		g.Go(func() error {
			img, err := s.decoder.Frame(gctx, path, index)
			if err != nil {
				// an unreadable frame is skipped, like a failed read in a capture loop
				log.Debug().Err(err).Int("frame", index).Msg("frame decode failed")
				return nil
			}
			data, err := s.encode(img)
			if err != nil {
				log.Debug().Err(err).Int("frame", index).Msg("frame encode failed")
				return nil
			}
			stills[i] = &Still{Index: index, MIMEType: "image/jpeg", Data: data}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, st := range stills {
		if st != nil {
			sample.Frames = append(sample.Frames, *st)
		}
	}
	if len(sample.Frames) == 0 {
		return nil, domain.ErrNoFrames
	}

	return sample, nil
}

func (s *Sampler) encode(img image.Image) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, s.opts.Width, s.opts.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// FrameIndices returns up to n evenly spaced indices in [0, total)
// using the integer stride max(1, total/n).
func FrameIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	step := total / n
	if step < 1 {
		step = 1
	}

	indices := make([]int, 0, n)
	for i := 0; i < total && len(indices) < n; i += step {
		indices = append(indices, i)
	}
	return indices
}

// FormatDuration renders seconds as M:SS, or "Unknown" when zero
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "Unknown"
	}
	minutes := int(seconds / 60)
	secs := int(math.Mod(seconds, 60))
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// Photo passes an uploaded photo through as a single still.
// The declared MIME type is sniffed when missing or generic.
func Photo(data []byte, mimeType string) (Still, error) {
	if len(data) == 0 {
		return Still{}, domain.ErrMediaDecode
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Still{}, fmt.Errorf("%w: %s is not an image", domain.ErrMediaDecode, mimeType)
	}
	return Still{MIMEType: mimeType, Data: data}, nil
}

func writeTemp(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".mp4"
	}
	f, err := os.CreateTemp("", "coach-video-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}
