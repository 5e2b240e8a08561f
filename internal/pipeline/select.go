package pipeline

import (
	"sort"

	"github.com/bdougie/ytframes/internal/models"
)

// Select drops talking-head frames, ranks the rest by confidence (stable for
// ties) and keeps at most max of them.
func Select(frames []models.ClassifiedFrame, max int) []models.ClassifiedFrame {
	useful := make([]models.ClassifiedFrame, 0, len(frames))
	for _, f := range frames {
		if f.Classification != models.TalkingHead {
			useful = append(useful, f)
		}
	}

	sort.SliceStable(useful, func(i, j int) bool {
		return useful[i].Confidence > useful[j].Confidence
	})

	if max < 0 {
		max = 0
	}
	if len(useful) > max {
		useful = useful[:max]
	}
	return useful
}

// Chronological orders frames by timestamp, keeping rank order for ties
func Chronological(frames []models.ClassifiedFrame) {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp < frames[j].Timestamp
	})
}
