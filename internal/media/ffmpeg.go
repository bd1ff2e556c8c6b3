package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegDecoder implements FrameDecoder with the ffprobe and ffmpeg binaries
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegDecoder creates a decoder using the given binaries
func NewFFmpegDecoder(ffmpegPath, ffprobePath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []struct {
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe counts the frames of the first video stream and reads its frame rate
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, d.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_frames,nb_read_packets,r_frame_rate,avg_frame_rate",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return ProbeInfo{}, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return ProbeInfo{}, fmt.Errorf("no video stream in %s", path)
	}

	st := parsed.Streams[0]
	info := ProbeInfo{
		FrameCount: atoiOrZero(st.NbFrames),
		FPS:        parseRate(st.AvgFrameRate),
	}
	if info.FrameCount == 0 {
		info.FrameCount = atoiOrZero(st.NbReadPackets)
	}
	if info.FPS == 0 {
		info.FPS = parseRate(st.RFrameRate)
	}
	return info, nil
}

// Frame decodes the frame at the given index as an image
func (d *FFmpegDecoder) Frame(ctx context.Context, path string, index int) (image.Image, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-vsync", "0",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("frame %d not found", index)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %d: %w", index, err)
	}
	return img, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseRate parses ffprobe rates such as "30000/1001"
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	dv, err := strconv.ParseFloat(den, 64)
	if err != nil || dv == 0 {
		return 0
	}
	return n / dv
}
