package dedupe

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math/bits"
	"os"

	"github.com/corona10/goimagehash"

	"github.com/bdougie/ytframes/internal/models"
)

// DefaultThreshold is the Hamming distance below which two frames are duplicates
const DefaultThreshold = 10

// Hasher computes a 64-bit perceptual fingerprint for an image file
type Hasher interface {
	Hash(path string) (uint64, error)
}

// PHash fingerprints images with a DCT perceptual hash
type PHash struct{}

// Hash decodes the image at path and returns its perceptual hash
func (PHash) Hash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("phash %s: %w", path, err)
	}
	return h.GetHash(), nil
}

// Distance is the number of differing bits between two fingerprints
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Format renders a fingerprint the way it is persisted
func Format(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// Deduplicator drops candidates that look like one already accepted
type Deduplicator struct {
	hasher    Hasher
	threshold int
	logger    *slog.Logger
}

// New creates a Deduplicator. A nil hasher uses PHash.
func New(hasher Hasher, threshold int, logger *slog.Logger) *Deduplicator {
	if hasher == nil {
		hasher = PHash{}
	}
	return &Deduplicator{
		hasher:    hasher,
		threshold: threshold,
		logger:    logger.With("component", "dedupe"),
	}
}

// Dedupe makes one greedy pass in input order. A candidate is dropped when
// its distance to any accepted fingerprint is below the threshold. Candidates
// that cannot be fingerprinted are kept but never join the accepted set.
func (d *Deduplicator) Dedupe(candidates []models.Candidate) []models.Candidate {
	unique := make([]models.Candidate, 0, len(candidates))
	var accepted []uint64

	for _, c := range candidates {
		h, err := d.hasher.Hash(c.Path)
		if err != nil {
			d.logger.Warn("fingerprint failed, keeping frame", "path", c.Path, "error", err)
			c.FingerprintFailed = true
			unique = append(unique, c)
			continue
		}

		if d.isDuplicate(h, accepted) {
			d.logger.Debug("dropping near-duplicate", "path", c.Path, "timestamp", c.Timestamp)
			continue
		}

		accepted = append(accepted, h)
		c.Fingerprint = Format(h)
		unique = append(unique, c)
	}

	d.logger.Info("deduplicated frames", "before", len(candidates), "after", len(unique))
	return unique
}

func (d *Deduplicator) isDuplicate(h uint64, accepted []uint64) bool {
	for _, a := range accepted {
		if Distance(h, a) < d.threshold {
			return true
		}
	}
	return false
}
