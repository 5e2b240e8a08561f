package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bdougie/ytframes/internal/analyzer"
	"github.com/bdougie/ytframes/internal/models"
	"github.com/bdougie/ytframes/internal/storage"
)

const maxClassifyText = 200

// FrameVerdict is one entry of a re-classification
type FrameVerdict struct {
	Filename       string                `json:"filename"`
	Classification models.Classification `json:"classification"`
	Confidence     float64               `json:"confidence"`
	OCRText        string                `json:"ocr_text"`
	Degraded       bool                  `json:"degraded,omitempty"`
}

// ClassifyResult is the outcome of re-classifying a frames directory
type ClassifyResult struct {
	Success    bool           `json:"success"`
	FramesDir  string         `json:"frames_dir"`
	Classifier string         `json:"classifier"`
	Results    []FrameVerdict `json:"results"`
}

// Classify labels every PNG in dir, in name order, without re-sampling
func (a *App) Classify(ctx context.Context, dir, classifierName string) (ClassifyResult, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return ClassifyResult{}, fmt.Errorf("Directory not found: %s", dir)
	}

	name := analyzer.ForReclassification(classifierName)
	classifier, err := analyzer.New(ctx, name, analyzerOptions(*a.Config), a.Logger)
	if err != nil {
		return ClassifyResult{}, err
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return ClassifyResult{}, err
	}
	sort.Strings(paths)

	candidates := make([]models.Candidate, len(paths))
	for i, p := range paths {
		candidates[i] = models.Candidate{Path: p}
	}

	frames, err := analyzer.NewProcessor(classifier, a.Progress, a.Logger).ClassifyAll(ctx, candidates)
	if err != nil {
		return ClassifyResult{}, err
	}

	results := make([]FrameVerdict, 0, len(frames))
	for _, f := range frames {
		results = append(results, FrameVerdict{
			Filename:       filepath.Base(f.Path),
			Classification: f.Classification,
			Confidence:     f.Confidence,
			OCRText:        storage.Truncate(f.Text, maxClassifyText),
			Degraded:       f.Degraded,
		})
	}

	return ClassifyResult{
		Success:    true,
		FramesDir:  dir,
		Classifier: name,
		Results:    results,
	}, nil
}
