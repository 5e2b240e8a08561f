package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bdougie/ytframes/internal/models"
)

// Classifier names accepted by New
const (
	OCRName    = "ocr"
	OllamaName = "ollama"
	ClaudeName = "claude"
	GPT4VName  = "gpt4v"
	NoneName   = "none"
)

// ErrUnknownClassifier is returned for a classifier name New does not know
var ErrUnknownClassifier = errors.New("unknown classifier")

// Classifier labels a single frame image. Failures are reported through a
// degraded verdict, never as an error.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, path string) models.Verdict
}

// Options carries the settings each classifier may need
type Options struct {
	TesseractBin string
	Ollama       OllamaOptions
	OpenAI       OpenAIOptions
	Anthropic    AnthropicOptions
}

// New builds the named classifier
func New(ctx context.Context, name string, opts Options, logger *slog.Logger) (Classifier, error) {
	logger = logger.With("component", "classifier", "classifier", name)
	switch name {
	case OCRName:
		return NewHeuristic(NewTesseract(opts.TesseractBin), logger), nil
	case OllamaName:
		return NewVision(OllamaName, NewOllama(ctx, opts.Ollama, logger), logger), nil
	case ClaudeName:
		return NewVision(ClaudeName, NewClaude(opts.Anthropic), logger), nil
	case GPT4VName:
		return NewVision(GPT4VName, NewOpenAI(opts.OpenAI), logger), nil
	case NoneName:
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
	}
}

// ForReclassification maps "none" to the heuristic classifier, since
// re-classifying an existing directory without labels is pointless.
func ForReclassification(name string) string {
	if name == NoneName {
		return OCRName
	}
	return name
}

// Validate reports whether name is a known classifier
func Validate(name string) error {
	switch name {
	case OCRName, OllamaName, ClaudeName, GPT4VName, NoneName:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
}

// None skips classification entirely
type None struct{}

func (None) Name() string { return NoneName }

func (None) Classify(context.Context, string) models.Verdict {
	return models.Verdict{Classification: models.Unknown, Confidence: 0.0}
}
