package analyzer

import (
	"context"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/bdougie/ytframes/internal/models"
)

// Processor classifies a batch of candidates one at a time
type Processor struct {
	classifier Classifier
	progress   io.Writer
	logger     *slog.Logger
}

// NewProcessor creates a processor. Progress is drawn to progress when it is not nil.
func NewProcessor(classifier Classifier, progress io.Writer, logger *slog.Logger) *Processor {
	if progress == nil {
		progress = io.Discard
	}
	return &Processor{
		classifier: classifier,
		progress:   progress,
		logger:     logger.With("component", "processor"),
	}
}

// ClassifyAll labels every candidate in order. It stops early only when ctx is done.
func (p *Processor) ClassifyAll(ctx context.Context, candidates []models.Candidate) ([]models.ClassifiedFrame, error) {
	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionSetDescription("classifying frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish()

	frames := make([]models.ClassifiedFrame, 0, len(candidates))
	degraded := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		v := p.classifier.Classify(ctx, c.Path)
		if v.Degraded {
			degraded++
		}
		frames = append(frames, models.ClassifiedFrame{Candidate: c, Verdict: v})
		_ = bar.Add(1)
	}

	p.logger.Info("classified frames",
		"classifier", p.classifier.Name(),
		"frames", len(frames),
		"degraded", degraded,
	)
	return frames, nil
}
