package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bdougie/ytframes/internal/models"
)

// ErrOCRUnavailable is returned when no text recognition tool is installed
var ErrOCRUnavailable = errors.New("text recognition unavailable")

var codePatterns = []string{
	"def ", "class ", "import ", "function", "const ", "let ", "var ",
	"return ", "if (", "for (", "while ", "=>", "->", "::", "//", "/*",
	"{", "}", "[];", "();", "pip install", "npm ", "cargo ", "git ",
}

var diagramPatterns = []string{
	"database", "server", "client", "api", "service", "load balancer",
	"cache", "queue", "gateway", "container", "kubernetes", "docker",
	"aws", "azure", "gcp", "microservice", "architecture",
}

// TextReader extracts visible text from an image
type TextReader interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// Tesseract reads text with the tesseract CLI
type Tesseract struct {
	bin string
}

func NewTesseract(bin string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	return &Tesseract{bin: bin}
}

func (t *Tesseract) ReadText(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath(t.bin); err != nil {
		return "", ErrOCRUnavailable
	}

	cmd := exec.CommandContext(ctx, t.bin, path, "stdout")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Heuristic classifies frames from the amount and vocabulary of their text
type Heuristic struct {
	reader TextReader
	logger *slog.Logger
	warn   sync.Once
}

func NewHeuristic(reader TextReader, logger *slog.Logger) *Heuristic {
	return &Heuristic{reader: reader, logger: logger}
}

func (h *Heuristic) Name() string { return OCRName }

func (h *Heuristic) Classify(ctx context.Context, path string) models.Verdict {
	text, err := h.reader.ReadText(ctx, path)
	if err != nil {
		if errors.Is(err, ErrOCRUnavailable) {
			h.warn.Do(func() {
				h.logger.Warn("text recognition unavailable, frames will be classified without text")
			})
		} else {
			h.logger.Warn("text recognition failed", "path", path, "error", err)
		}
		v := ClassifyText("")
		v.Degraded = true
		return v
	}
	return ClassifyText(text)
}

// TextDensity scores text length on [0,1], saturating at 100 characters
func TextDensity(text string) float64 {
	return min(float64(utf8.RuneCountInString(text))/100, 1.0)
}

func countMatches(text string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

// ClassifyText applies the text decision tree. Rules are checked in order:
// code vocabulary, diagram vocabulary, dense text, sparse text.
func ClassifyText(raw string) models.Verdict {
	text := strings.Join(strings.Fields(raw), " ")
	lower := strings.ToLower(text)
	density := TextDensity(text)

	if n := countMatches(lower, codePatterns); n >= 3 {
		return models.Verdict{Classification: models.Code, Confidence: min(0.5+float64(n)*0.1, 0.95), Text: text}
	}
	if n := countMatches(lower, diagramPatterns); n >= 2 {
		return models.Verdict{Classification: models.Diagram, Confidence: min(0.5+float64(n)*0.1, 0.95), Text: text}
	}
	if density > 0.3 {
		return models.Verdict{Classification: models.Slide, Confidence: density, Text: text}
	}
	if density < 0.1 {
		return models.Verdict{Classification: models.TalkingHead, Confidence: 0.7, Text: text}
	}
	return models.Verdict{Classification: models.Other, Confidence: 0.5, Text: text}
}
