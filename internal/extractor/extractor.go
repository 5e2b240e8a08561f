package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ErrFFmpegNotFound is returned when the ffmpeg binary is not on PATH
var ErrFFmpegNotFound = errors.New("ffmpeg not found. Please install ffmpeg.")

var ptsTimePattern = regexp.MustCompile(`pts_time:(\d+\.?\d*)`)

// Decoder extracts still images from a video file
type Decoder interface {
	// SelectFrames writes every frame accepted by filter into dir and returns
	// the written paths in order along with the presentation times reported
	// for them. The times slice may be shorter than the paths slice.
	SelectFrames(ctx context.Context, video, filter, dir, prefix string) ([]string, []float64, error)

	// SampleEvery writes one frame per interval seconds into dir.
	SampleEvery(ctx context.Context, video string, interval int, dir, prefix string) ([]string, error)

	// FrameAt writes the single frame at offset seconds to out.
	FrameAt(ctx context.Context, video string, offset float64, out string) error
}

// FFmpeg is a Decoder backed by the ffmpeg binary
type FFmpeg struct {
	bin    string
	logger *slog.Logger
}

// NewFFmpeg creates a decoder that invokes bin
func NewFFmpeg(bin string, logger *slog.Logger) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{bin: bin, logger: logger.With("component", "ffmpeg")}
}

// Available reports whether the ffmpeg binary can be found
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.bin)
	return err == nil
}

// Check returns ErrFFmpegNotFound when ffmpeg is missing
func (f *FFmpeg) Check() error {
	if !f.Available() {
		return ErrFFmpegNotFound
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, f.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", "args", args)
	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, tail(stderr.String(), 2048))
	}
	return stderr.String(), nil
}

// SelectFrames runs a select filter with showinfo and parses pts_time lines
func (f *FFmpeg) SelectFrames(ctx context.Context, video, filter, dir, prefix string) ([]string, []float64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create frame directory '%s': %w", dir, err)
	}

	stderr, err := f.run(ctx,
		"-i", video,
		"-vf", filter+",showinfo",
		"-vsync", "vfr",
		filepath.Join(dir, prefix+"%04d.png"),
		"-y",
	)
	paths := listFrames(dir, prefix)
	if err != nil && len(paths) == 0 {
		return nil, nil, err
	}
	if err != nil {
		f.logger.Warn("ffmpeg exited with error after writing frames", "frames", len(paths), "error", err)
	}

	return paths, ParsePTSTimes(stderr), nil
}

// SampleEvery extracts one frame per interval using the fps filter
func (f *FFmpeg) SampleEvery(ctx context.Context, video string, interval int, dir, prefix string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frame directory '%s': %w", dir, err)
	}

	_, err := f.run(ctx,
		"-i", video,
		"-vf", fmt.Sprintf("fps=1/%d", interval),
		filepath.Join(dir, prefix+"%04d.png"),
		"-y",
	)
	paths := listFrames(dir, prefix)
	if err != nil && len(paths) == 0 {
		return nil, err
	}
	return paths, nil
}

// FrameAt seeks to offset and writes a single high quality frame
func (f *FFmpeg) FrameAt(ctx context.Context, video string, offset float64, out string) error {
	_, err := f.run(ctx,
		"-ss", strconv.FormatFloat(offset, 'f', -1, 64),
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		out,
		"-y",
	)
	if _, statErr := os.Stat(out); statErr == nil {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("ffmpeg produced no frame at %.2fs", offset)
}

// ParsePTSTimes collects presentation times from showinfo output in order
func ParsePTSTimes(output string) []float64 {
	var times []float64
	for _, m := range ptsTimePattern.FindAllStringSubmatch(output, -1) {
		ts, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		times = append(times, ts)
	}
	return times
}

func listFrames(dir, prefix string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, prefix+"*.png"))
	sort.Strings(matches)
	return matches
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
