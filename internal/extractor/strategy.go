package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bdougie/ytframes/internal/models"
)

// Strategy names accepted by NewStrategy
const (
	SceneChangeName = "scene-change"
	IntervalName    = "interval"
	KeyframeName    = "keyframe"
	ChaptersName    = "chapters"
	HybridName      = "hybrid"
)

// ErrUnknownStrategy is returned for a strategy name NewStrategy does not know
var ErrUnknownStrategy = errors.New("unknown strategy")

const (
	sceneFallbackStep    = 10.0
	keyframeFallbackStep = 5.0
	chapterCaptureOffset = 1.0
)

// Source describes one sampling run
type Source struct {
	Video    string
	Dir      string
	Chapters []models.Chapter
}

// Strategy produces candidate frames from a video. Decoder failures yield an
// empty result rather than an error.
type Strategy interface {
	Name() string
	RequiresChapters() bool
	Sample(ctx context.Context, src Source) []models.Candidate
}

// Params tunes the sampling strategies
type Params struct {
	SceneThreshold  float64
	IntervalSeconds int
}

// NewStrategy builds the named strategy on top of dec
func NewStrategy(name string, dec Decoder, p Params, logger *slog.Logger) (Strategy, error) {
	logger = logger.With("component", "sampler", "strategy", name)
	switch name {
	case SceneChangeName:
		return &SceneChange{dec: dec, threshold: p.SceneThreshold, logger: logger}, nil
	case IntervalName:
		return &Interval{dec: dec, seconds: p.IntervalSeconds, logger: logger}, nil
	case KeyframeName:
		return &Keyframe{dec: dec, logger: logger}, nil
	case ChaptersName:
		return &Chapters{dec: dec, logger: logger}, nil
	case HybridName:
		return &Hybrid{
			scene:    &SceneChange{dec: dec, threshold: p.SceneThreshold, logger: logger},
			chapters: &Chapters{dec: dec, logger: logger},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Names lists every strategy in the order they are documented
func Names() []string {
	return []string{SceneChangeName, IntervalName, KeyframeName, ChaptersName, HybridName}
}

// pair matches written frames to parsed times, falling back to i*step
func pair(paths []string, times []float64, step float64, logger *slog.Logger) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(paths))
	synthetic := 0
	for i, p := range paths {
		c := models.Candidate{Path: p}
		if i < len(times) {
			c.Timestamp = times[i]
		} else {
			c.Timestamp = float64(i) * step
			c.SyntheticTimestamp = true
			synthetic++
		}
		candidates = append(candidates, c)
	}
	if synthetic > 0 {
		logger.Warn("presentation times missing, using synthetic timestamps", "frames", synthetic, "step", step)
	}
	return candidates
}

// SceneChange keeps frames whose scene score exceeds a threshold
type SceneChange struct {
	dec       Decoder
	threshold float64
	logger    *slog.Logger
}

func (s *SceneChange) Name() string           { return SceneChangeName }
func (s *SceneChange) RequiresChapters() bool { return false }

func (s *SceneChange) Sample(ctx context.Context, src Source) []models.Candidate {
	filter := fmt.Sprintf("select='gt(scene,%g)'", s.threshold)
	paths, times, err := s.dec.SelectFrames(ctx, src.Video, filter, src.Dir, "scene_")
	if err != nil {
		s.logger.Warn("scene detection failed", "error", err)
		return nil
	}
	return pair(paths, times, sceneFallbackStep, s.logger)
}

// Interval samples one frame every fixed number of seconds
type Interval struct {
	dec     Decoder
	seconds int
	logger  *slog.Logger
}

func (s *Interval) Name() string           { return IntervalName }
func (s *Interval) RequiresChapters() bool { return false }

func (s *Interval) Sample(ctx context.Context, src Source) []models.Candidate {
	paths, err := s.dec.SampleEvery(ctx, src.Video, s.seconds, src.Dir, "interval_")
	if err != nil {
		s.logger.Warn("interval sampling failed", "error", err)
		return nil
	}

	candidates := make([]models.Candidate, 0, len(paths))
	for i, p := range paths {
		candidates = append(candidates, models.Candidate{
			Path:      p,
			Timestamp: float64(i * s.seconds),
		})
	}
	return candidates
}

// Keyframe keeps intra-coded frames only
type Keyframe struct {
	dec    Decoder
	logger *slog.Logger
}

func (s *Keyframe) Name() string           { return KeyframeName }
func (s *Keyframe) RequiresChapters() bool { return false }

func (s *Keyframe) Sample(ctx context.Context, src Source) []models.Candidate {
	paths, times, err := s.dec.SelectFrames(ctx, src.Video, "select='eq(pict_type,I)'", src.Dir, "keyframe_")
	if err != nil {
		s.logger.Warn("keyframe extraction failed", "error", err)
		return nil
	}
	return pair(paths, times, keyframeFallbackStep, s.logger)
}

// Chapters captures one frame just after each chapter starts
type Chapters struct {
	dec    Decoder
	logger *slog.Logger
}

func (s *Chapters) Name() string           { return ChaptersName }
func (s *Chapters) RequiresChapters() bool { return true }

func (s *Chapters) Sample(ctx context.Context, src Source) []models.Candidate {
	var candidates []models.Candidate
	for i, ch := range src.Chapters {
		out := filepath.Join(src.Dir, fmt.Sprintf("chapter_%02d.png", i))
		if err := s.dec.FrameAt(ctx, src.Video, ch.StartTime+chapterCaptureOffset, out); err != nil {
			s.logger.Debug("skipping chapter", "index", i, "title", ch.Title, "error", err)
			continue
		}
		candidates = append(candidates, models.Candidate{Path: out, Timestamp: ch.StartTime})
	}
	return candidates
}

// Hybrid merges scene changes with chapter starts in timestamp order
type Hybrid struct {
	scene    *SceneChange
	chapters *Chapters
}

func (s *Hybrid) Name() string           { return HybridName }
func (s *Hybrid) RequiresChapters() bool { return false }

func (s *Hybrid) Sample(ctx context.Context, src Source) []models.Candidate {
	candidates := s.scene.Sample(ctx, src)
	if len(src.Chapters) > 0 {
		candidates = append(candidates, s.chapters.Sample(ctx, src)...)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp < candidates[j].Timestamp
	})
	return candidates
}
