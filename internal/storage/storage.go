package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bdougie/ytframes/internal/models"
	"github.com/bdougie/ytframes/internal/timecode"
)

const (
	metadataFile = "metadata.json"
	summaryFile  = "summary.md"
	framesDir    = "frames"

	// MaxOCRText bounds the recognised text kept per persisted frame
	MaxOCRText = 500
)

// Storage defines how an extraction is persisted
type Storage interface {
	// SaveFrames copies the selected frames into the video's frames directory
	SaveFrames(videoID string, frames []models.ClassifiedFrame) ([]models.ExtractedFrame, error)

	// Save writes metadata.json and summary.md
	Save(meta models.Metadata) error
}

// Store keeps one flat directory per video under root
type Store struct {
	root string
	now  func() time.Time
}

// NewStore creates a store rooted at root
func NewStore(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// Root is the directory holding every extraction
func (s *Store) Root() string { return s.root }

// VideoDir is the output directory for one video
func (s *Store) VideoDir(videoID string) string {
	return filepath.Join(s.root, videoID)
}

// FramesDir is where persisted frames for a video live
func (s *Store) FramesDir(videoID string) string {
	return filepath.Join(s.VideoDir(videoID), framesDir)
}

// FrameName is the persisted name for a frame before collision handling
func FrameName(timestamp float64, c models.Classification) string {
	return fmt.Sprintf("%s_%s.png", timecode.FormatTimestamp(timestamp), c)
}

func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *Store) SaveFrames(videoID string, frames []models.ClassifiedFrame) ([]models.ExtractedFrame, error) {
	dir := s.FramesDir(videoID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frames directory '%s': %w", dir, err)
	}

	used := make(map[string]bool, len(frames))
	out := make([]models.ExtractedFrame, 0, len(frames))
	for _, f := range frames {
		name := uniqueName(FrameName(f.Timestamp, f.Classification), used)
		if err := copyFile(f.Path, filepath.Join(dir, name)); err != nil {
			return out, fmt.Errorf("copy frame %s: %w", filepath.Base(f.Path), err)
		}

		out = append(out, models.ExtractedFrame{
			Filename:           name,
			Timestamp:          f.Timestamp,
			TimestampFormatted: timecode.FormatDisplay(f.Timestamp),
			Classification:     f.Classification,
			Confidence:         f.Confidence,
			OCRText:            Truncate(f.Text, MaxOCRText),
			PHash:              f.Fingerprint,
			Degraded:           f.Degraded,
			SyntheticTimestamp: f.SyntheticTimestamp,
			FingerprintFailed:  f.FingerprintFailed,
		})
	}
	return out, nil
}

// copyFile copies content and modification time
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (s *Store) Save(meta models.Metadata) error {
	if meta.ExtractedAt == "" {
		meta.ExtractedAt = s.now().Format(time.RFC3339)
	}
	if meta.Frames == nil {
		meta.Frames = []models.ExtractedFrame{}
	}
	if err := s.WriteMetadata(meta); err != nil {
		return err
	}
	return s.WriteSummary(meta)
}

// WriteMetadata writes metadata.json for the video
func (s *Store) WriteMetadata(meta models.Metadata) error {
	dir := s.VideoDir(meta.VideoID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory '%s': %w", dir, err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads metadata.json back for a video
func (s *Store) LoadMetadata(videoID string) (*models.Metadata, error) {
	return readMetadata(filepath.Join(s.VideoDir(videoID), metadataFile))
}

func readMetadata(path string) (*models.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &meta, nil
}

// WriteSummary writes the human-readable summary.md
func (s *Store) WriteSummary(meta models.Metadata) error {
	title := meta.Title
	if title == "" {
		title = meta.VideoID
	}

	extracted := meta.ExtractedAt
	if t, err := time.Parse(time.RFC3339, meta.ExtractedAt); err == nil {
		extracted = t.Format("2006-01-02 15:04")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Extracted Frames: %s\n\n", title)
	fmt.Fprintf(&b, "**Video ID:** %s\n", meta.VideoID)
	fmt.Fprintf(&b, "**Extracted:** %s\n", extracted)
	fmt.Fprintf(&b, "**Strategy:** %s\n", meta.Strategy)
	fmt.Fprintf(&b, "**Frames:** %d (from %d initial)\n\n", meta.Stats.FinalFrames, meta.Stats.InitialFrames)
	b.WriteString("## Frames\n\n")
	for _, f := range meta.Frames {
		fmt.Fprintf(&b, "- **%s** [%s] `%s`\n", f.TimestampFormatted, f.Classification, f.Filename)
	}

	path := filepath.Join(s.VideoDir(meta.VideoID), summaryFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Extraction is one entry returned by List
type Extraction struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	ExtractedAt string `json:"extracted_at"`
	FrameCount  int    `json:"frame_count"`
	Path        string `json:"path"`
}

// List returns every extraction under root that has readable metadata
func (s *Store) List() ([]Extraction, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read output root '%s': %w", s.root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []Extraction
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		meta, err := readMetadata(filepath.Join(dir, metadataFile))
		if err != nil {
			continue
		}
		out = append(out, Extraction{
			VideoID:     meta.VideoID,
			Title:       meta.Title,
			ExtractedAt: meta.ExtractedAt,
			FrameCount:  len(meta.Frames),
			Path:        dir,
		})
	}
	return out, nil
}
