package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bdougie/ytframes/internal/analyzer"
	"github.com/bdougie/ytframes/internal/config"
	"github.com/bdougie/ytframes/internal/dedupe"
	"github.com/bdougie/ytframes/internal/extractor"
	"github.com/bdougie/ytframes/internal/models"
	"github.com/bdougie/ytframes/internal/pipeline"
	"github.com/bdougie/ytframes/internal/storage"
	"github.com/bdougie/ytframes/internal/youtube"
)

// MediaTool decodes video and reports whether it is installed
type MediaTool interface {
	extractor.Decoder
	Check() error
}

// VideoService resolves metadata and manages the download cache
type VideoService interface {
	pipeline.MetadataSource
	pipeline.Downloader
	Purge(videoID string) (bool, error)
	PurgeAll() (int, error)
}

// App wires configuration and external tools into the command use cases
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Progress io.Writer
	Media    MediaTool
	Videos   VideoService
	Renderer Renderer
}

// New builds an App backed by ffmpeg, yt-dlp and chafa
func New(cfg *config.Config, logger *slog.Logger, progress io.Writer) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Progress: progress,
		Media:    extractor.NewFFmpeg(cfg.Tools.FFmpeg, logger),
		Videos:   youtube.NewClient(cfg.Tools.YtDlp, cfg.CacheDir, logger),
		Renderer: NewChafa(cfg.Tools.Chafa),
	}
}

func analyzerOptions(cfg config.Config) analyzer.Options {
	return analyzer.Options{
		TesseractBin: cfg.Tools.Tesseract,
		Ollama: analyzer.OllamaOptions{
			BaseURL: cfg.Ollama.BaseURL,
			Port:    cfg.Ollama.Port,
			Model:   cfg.Ollama.Model,
		},
		OpenAI: analyzer.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		},
		Anthropic: analyzer.AnthropicOptions{
			APIKey:  cfg.Anthropic.APIKey,
			BaseURL: cfg.Anthropic.BaseURL,
			Model:   cfg.Anthropic.Model,
		},
	}
}

// Extract runs the full pipeline for ref using opts. Configuration and
// resolution problems are returned as errors; pipeline failures are
// reported in the result.
func (a *App) Extract(ctx context.Context, ref string, opts config.Config) (models.ExtractionResult, error) {
	videoID, err := youtube.ParseVideoID(ref)
	if err != nil {
		return models.ExtractionResult{}, err
	}
	if err := opts.Validate(); err != nil {
		return models.ExtractionResult{}, err
	}
	if err := analyzer.Validate(opts.Classifier); err != nil {
		return models.ExtractionResult{}, err
	}

	strategy, err := extractor.NewStrategy(opts.Strategy, a.Media, extractor.Params{
		SceneThreshold:  opts.SceneThreshold,
		IntervalSeconds: opts.Interval,
	}, a.Logger)
	if err != nil {
		return models.ExtractionResult{}, err
	}

	classifier, err := analyzer.New(ctx, opts.Classifier, analyzerOptions(opts), a.Logger)
	if err != nil {
		return models.ExtractionResult{}, err
	}

	p := pipeline.New(pipeline.Deps{
		Tool:         a.Media,
		Metadata:     a.Videos,
		Downloader:   a.Videos,
		Strategy:     strategy,
		Deduplicator: dedupe.New(nil, opts.DedupThreshold, a.Logger),
		Processor:    analyzer.NewProcessor(classifier, a.Progress, a.Logger),
		Store:        storage.NewStore(opts.OutputRoot),
	}, pipeline.Options{
		Classifier:    opts.Classifier,
		MaxFrames:     opts.MaxFrames,
		KeepVideo:     opts.KeepVideo,
		MaxResolution: opts.MaxResolution,
		Chronological: opts.Chronological,
	}, a.Logger)

	return p.Run(ctx, videoID), nil
}

// Summary is the short result reported by quick and chapters
type Summary struct {
	Success    bool   `json:"success"`
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	OutputDir  string `json:"output_dir,omitempty"`
	FrameCount *int   `json:"frame_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func summarize(r models.ExtractionResult) Summary {
	s := Summary{Success: r.Success, VideoID: r.VideoID, Title: r.Title}
	if r.Success {
		n := len(r.Frames)
		s.OutputDir = r.OutputDir
		s.FrameCount = &n
	} else {
		s.Error = r.Error
	}
	return s
}

func (a *App) withOutput(outputRoot string) config.Config {
	opts := *a.Config
	if outputRoot != "" {
		opts.OutputRoot = outputRoot
	}
	return opts
}

// Quick samples scene changes without classifying them
func (a *App) Quick(ctx context.Context, ref, outputRoot string) (Summary, error) {
	opts := a.withOutput(outputRoot)
	opts.Strategy = extractor.SceneChangeName
	opts.Classifier = analyzer.NoneName

	r, err := a.Extract(ctx, ref, opts)
	if err != nil {
		return Summary{}, err
	}
	return summarize(r), nil
}

// Chapters captures one frame per chapter and classifies it from its text
func (a *App) Chapters(ctx context.Context, ref, outputRoot string) (Summary, error) {
	opts := a.withOutput(outputRoot)
	opts.Strategy = extractor.ChaptersName
	opts.Classifier = analyzer.OCRName

	r, err := a.Extract(ctx, ref, opts)
	if err != nil {
		return Summary{}, err
	}
	return summarize(r), nil
}

// CleanResult reports what the cache purge removed
type CleanResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Clean removes one cached video, or all of them when ref is empty
func (a *App) Clean(ref string) (CleanResult, error) {
	if ref == "" {
		n, err := a.Videos.PurgeAll()
		if err != nil {
			return CleanResult{}, err
		}
		return CleanResult{Success: true, Message: fmt.Sprintf("Removed %d cached videos", n)}, nil
	}

	videoID, err := youtube.ParseVideoID(ref)
	if err != nil {
		return CleanResult{}, err
	}
	removed, err := a.Videos.Purge(videoID)
	if err != nil {
		return CleanResult{}, err
	}
	if !removed {
		return CleanResult{Success: true, Message: "No cached video found: " + videoID}, nil
	}
	return CleanResult{Success: true, Message: "Removed cached video: " + videoID}, nil
}

// ListResult enumerates prior extractions
type ListResult struct {
	Success     bool                 `json:"success"`
	OutputRoot  string               `json:"output_root"`
	Extractions []storage.Extraction `json:"extractions"`
	Message     string               `json:"message,omitempty"`
}

// List reads persisted metadata under outputRoot
func (a *App) List(outputRoot string) (ListResult, error) {
	opts := a.withOutput(outputRoot)
	store := storage.NewStore(opts.OutputRoot)
	found, err := store.List()
	if err != nil {
		return ListResult{}, err
	}

	res := ListResult{Success: true, OutputRoot: store.Root(), Extractions: found}
	if len(found) == 0 {
		res.Extractions = []storage.Extraction{}
		res.Message = "No extractions found"
	}
	return res, nil
}

// ErrConfigExists is returned by InitConfig when it would overwrite a file
var ErrConfigExists = errors.New("config file already exists")

// InitConfigResult reports where the effective configuration was written
type InitConfigResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// InitConfig writes the effective configuration to path so it can be edited.
// An existing file is kept unless force is set.
func (a *App) InitConfig(path string, force bool) (InitConfigResult, error) {
	if path == "" {
		path = config.DefaultPath
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return InitConfigResult{}, fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return InitConfigResult{}, fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := a.Config.Save(path); err != nil {
		return InitConfigResult{}, fmt.Errorf("write config: %w", err)
	}
	return InitConfigResult{Success: true, Path: path}, nil
}
