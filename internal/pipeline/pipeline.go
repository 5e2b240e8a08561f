package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bdougie/ytframes/internal/analyzer"
	"github.com/bdougie/ytframes/internal/dedupe"
	"github.com/bdougie/ytframes/internal/extractor"
	"github.com/bdougie/ytframes/internal/models"
	"github.com/bdougie/ytframes/internal/storage"
)

// ErrNoChapters is reported when the chapters strategy runs on a video without chapters
var ErrNoChapters = errors.New("No chapters found for this video")

const downloadFailedMessage = "Failed to download video"

// State is a stage of the extraction state machine
type State int

const (
	Init State = iota
	InfoFetched
	Downloaded
	Sampled
	Deduped
	Classified
	Selected
	Persisted
	Done
	Failed
)

var stateNames = [...]string{
	"init", "info_fetched", "downloaded", "sampled", "deduped",
	"classified", "selected", "persisted", "done", "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ToolCheck verifies the media tool is installed
type ToolCheck interface {
	Check() error
}

// MetadataSource looks up title and chapters for a video
type MetadataSource interface {
	Info(ctx context.Context, videoID string) (*models.VideoInfo, error)
}

// Downloader fetches the source video and returns its local path
type Downloader interface {
	Download(ctx context.Context, videoID string, maxHeight int) (string, error)
}

// Sink persists an extraction
type Sink interface {
	storage.Storage
	VideoDir(videoID string) string
}

// Options tunes one pipeline
type Options struct {
	Classifier    string
	MaxFrames     int
	KeepVideo     bool
	MaxResolution int
	Chronological bool
}

// Deps are the collaborators a Pipeline drives
type Deps struct {
	Tool         ToolCheck
	Metadata     MetadataSource
	Downloader   Downloader
	Strategy     extractor.Strategy
	Deduplicator *dedupe.Deduplicator
	Processor    *analyzer.Processor
	Store        Sink
}

// Pipeline runs download, sampling, dedup, classification, selection and persistence for one video
type Pipeline struct {
	deps    Deps
	opts    Options
	logger  *slog.Logger
	history []State
}

func New(deps Deps, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logger.With("component", "pipeline"),
	}
}

// State is the most recent state entered
func (p *Pipeline) State() State {
	if len(p.history) == 0 {
		return Init
	}
	return p.history[len(p.history)-1]
}

// History lists every state entered during the last run
func (p *Pipeline) History() []State {
	return append([]State(nil), p.history...)
}

func (p *Pipeline) enter(log *slog.Logger, s State) {
	p.history = append(p.history, s)
	log.Debug("pipeline state", "state", s.String())
}

// Run extracts frames for videoID. Errors and panics are reported through
// the returned result rather than propagated.
func (p *Pipeline) Run(ctx context.Context, videoID string) (result models.ExtractionResult) {
	p.history = nil
	log := p.logger.With("run_id", uuid.NewString(), "video_id", videoID)
	started := time.Now()
	var title string

	fail := func(msg string) models.ExtractionResult {
		p.enter(log, Failed)
		log.Error("extraction failed", "error", msg)
		return models.ExtractionResult{VideoID: videoID, Title: title, Strategy: p.deps.Strategy.Name(), Error: msg}
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Sprint(r))
		}
	}()

	p.enter(log, Init)
	if err := p.deps.Tool.Check(); err != nil {
		return fail(err.Error())
	}

	var chapters []models.Chapter
	if info, err := p.deps.Metadata.Info(ctx, videoID); err != nil {
		log.Warn("could not fetch video metadata", "error", err)
	} else {
		title = info.Title
		chapters = info.Chapters
	}
	p.enter(log, InfoFetched)

	video, err := p.deps.Downloader.Download(ctx, videoID, p.opts.MaxResolution)
	if err != nil {
		log.Warn("download failed", "error", err)
		return fail(downloadFailedMessage)
	}
	p.enter(log, Downloaded)

	if p.deps.Strategy.RequiresChapters() && len(chapters) == 0 {
		return fail(ErrNoChapters.Error())
	}

	outputDir := p.deps.Store.VideoDir(videoID)
	scratch := filepath.Join(outputDir, "raw_frames")
	// Leftovers from an interrupted run would be picked up as candidates.
	if err := os.RemoveAll(scratch); err != nil {
		return fail(fmt.Sprintf("clear scratch directory: %v", err))
	}
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return fail(fmt.Sprintf("create scratch directory: %v", err))
	}
	defer os.RemoveAll(scratch)

	candidates := p.deps.Strategy.Sample(ctx, extractor.Source{
		Video:    video,
		Dir:      scratch,
		Chapters: chapters,
	})
	p.enter(log, Sampled)
	log.Info("sampled frames", "strategy", p.deps.Strategy.Name(), "candidates", len(candidates))

	unique := p.deps.Deduplicator.Dedupe(candidates)
	p.enter(log, Deduped)

	classified, err := p.deps.Processor.ClassifyAll(ctx, unique)
	if err != nil {
		return fail(err.Error())
	}
	p.enter(log, Classified)

	selected := Select(classified, p.opts.MaxFrames)
	if p.opts.Chronological {
		Chronological(selected)
	}
	p.enter(log, Selected)

	frames, err := p.deps.Store.SaveFrames(videoID, selected)
	if err != nil {
		return fail(err.Error())
	}

	stats := models.Stats{
		InitialFrames: len(candidates),
		AfterDedup:    len(unique),
		FinalFrames:   len(frames),
	}
	meta := models.Metadata{
		VideoID:     videoID,
		Title:       title,
		ExtractedAt: started.Format(time.RFC3339),
		Strategy:    p.deps.Strategy.Name(),
		Classifier:  p.opts.Classifier,
		Stats:       stats,
		Frames:      frames,
	}
	if err := p.deps.Store.Save(meta); err != nil {
		return fail(err.Error())
	}
	p.enter(log, Persisted)

	if !p.opts.KeepVideo {
		if err := os.Remove(video); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove source video", "path", video, "error", err)
		}
	}

	p.enter(log, Done)
	log.Info("extraction complete",
		"initial", stats.InitialFrames,
		"after_dedup", stats.AfterDedup,
		"final", stats.FinalFrames,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return models.ExtractionResult{
		Success:   true,
		VideoID:   videoID,
		Title:     title,
		OutputDir: outputDir,
		Strategy:  p.deps.Strategy.Name(),
		Frames:    frames,
		Stats:     stats,
	}
}
