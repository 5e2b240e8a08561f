package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bdougie/ytframes/internal/models"
)

// VisionPrompt asks a multimodal model for a single category word
const VisionPrompt = `Classify this video frame based on its PRIMARY content.
If there's a person in a small corner but the main area shows something else, classify by the main content.

Categories:
- diagram: Architecture diagram, flowchart, system design, UML, boxes with arrows
- code: Code snippet, terminal output, IDE screenshot, command line
- slide: Presentation slide, document, article, text with bullet points
- chart: Graph, plot, data visualization
- talking_head: ONLY if person's face dominates >50% of frame with no other content
- other: None of the above

Reply with exactly one word: diagram, code, slide, chart, talking_head, or other`

// VisionModel answers a prompt about one image
type VisionModel interface {
	Ask(ctx context.Context, prompt, imagePath string) (string, error)
}

// Vision classifies frames by asking an external multimodal model
type Vision struct {
	name   string
	model  VisionModel
	logger *slog.Logger
}

func NewVision(name string, model VisionModel, logger *slog.Logger) *Vision {
	return &Vision{name: name, model: model, logger: logger}
}

func (v *Vision) Name() string { return v.name }

func (v *Vision) Classify(ctx context.Context, path string) models.Verdict {
	answer, err := v.model.Ask(ctx, VisionPrompt, path)
	if err != nil {
		v.logger.Warn("vision model failed, defaulting to other", "path", path, "error", err)
		return models.Verdict{Classification: models.Other, Confidence: 0.5, Degraded: true}
	}
	return ParseVisionResponse(answer)
}

// ParseVisionResponse maps a free-form model answer onto a category.
// An exact answer scores 0.9, a category mentioned anywhere scores 0.85.
func ParseVisionResponse(answer string) models.Verdict {
	answer = strings.ToLower(strings.TrimSpace(answer))
	answer = strings.Trim(answer, ".!\"'`")

	for _, ft := range models.FrameTypes {
		if answer == string(ft) {
			return models.Verdict{Classification: ft, Confidence: 0.9}
		}
	}
	for _, ft := range models.FrameTypes {
		if strings.Contains(answer, string(ft)) {
			return models.Verdict{Classification: ft, Confidence: 0.85}
		}
	}
	return models.Verdict{Classification: models.Other, Confidence: 0.5}
}
