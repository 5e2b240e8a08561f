package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bdougie/ytframes/internal/models"
	"github.com/bdougie/ytframes/internal/storage"
	"github.com/bdougie/ytframes/internal/youtube"
)

// ErrRendererNotFound is returned when the terminal image renderer is missing
var ErrRendererNotFound = errors.New("chafa not installed. Install with: sudo apt install chafa")

// DefaultViewSize is the character cell size frames are drawn at
const DefaultViewSize = "80x30"

// Renderer draws an image as terminal text
type Renderer interface {
	Available() bool
	Render(ctx context.Context, path, size string) (string, error)
}

// Chafa renders images with the chafa CLI
type Chafa struct {
	bin string
}

func NewChafa(bin string) *Chafa {
	if bin == "" {
		bin = "chafa"
	}
	return &Chafa{bin: bin}
}

func (c *Chafa) Available() bool {
	_, err := exec.LookPath(c.bin)
	return err == nil
}

func (c *Chafa) Render(ctx context.Context, path, size string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, "--size="+size, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("chafa error: %s", strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// ViewOptions controls the view command
type ViewOptions struct {
	OutputRoot string
	Size       string
	Filter     string
}

var (
	rule    = strings.Repeat("=", 80)
	boxLine = strings.Repeat("─", 78)
)

// View renders a persisted extraction to w
func (a *App) View(ctx context.Context, w io.Writer, ref string, opts ViewOptions) error {
	if !a.Renderer.Available() {
		return ErrRendererNotFound
	}

	videoID, err := youtube.ParseVideoID(ref)
	if err != nil {
		return err
	}
	if opts.Size == "" {
		opts.Size = DefaultViewSize
	}

	store := storage.NewStore(a.withOutput(opts.OutputRoot).OutputRoot)
	if _, err := os.Stat(store.VideoDir(videoID)); err != nil {
		return fmt.Errorf("No extraction found for video ID: %s", videoID)
	}
	meta, err := store.LoadMetadata(videoID)
	if err != nil {
		return fmt.Errorf("No metadata.json in %s", store.VideoDir(videoID))
	}

	frames := meta.Frames
	if opts.Filter != "" {
		frames = filterFrames(frames, models.Classification(opts.Filter))
	}

	if len(frames) == 0 {
		if opts.Filter != "" {
			fmt.Fprintf(w, "No frames found matching filter '%s'\n", opts.Filter)
		} else {
			fmt.Fprintln(w, "No frames found")
		}
		return nil
	}

	title := meta.Title
	if title == "" {
		title = videoID
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "  Video ID: %s\n", videoID)
	if opts.Filter != "" {
		fmt.Fprintf(w, "  Frames: %d (filtered: %s)\n", len(frames), opts.Filter)
	} else {
		fmt.Fprintf(w, "  Frames: %d\n", len(frames))
	}
	fmt.Fprintf(w, "%s\n\n", rule)

	framesDir := store.FramesDir(videoID)
	for i, f := range frames {
		path := filepath.Join(framesDir, f.Filename)
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(w, "[%d/%d] %s - %s (file missing)\n", i+1, len(frames), f.TimestampFormatted, f.Classification)
			continue
		}

		fmt.Fprintf(w, "┌%s┐\n", boxLine)
		fmt.Fprintf(w, "│ [%d/%d] %s │ %s (conf: %.0f%%) │ %s\n",
			i+1, len(frames), f.TimestampFormatted, f.Classification, f.Confidence*100, f.Filename)
		fmt.Fprintf(w, "├%s┤\n", boxLine)

		out, err := a.Renderer.Render(ctx, path, opts.Size)
		if err != nil {
			fmt.Fprintf(w, "  (%v)\n", err)
		} else {
			fmt.Fprintln(w, out)
		}

		fmt.Fprintf(w, "└%s┘\n\n", boxLine)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Total: %d frames\n", len(frames))
	if opts.Filter == "" {
		fmt.Fprintf(w, "  Types: %s\n", breakdown(frames))
	}
	fmt.Fprintf(w, "%s\n\n", rule)
	return nil
}

func filterFrames(frames []models.ExtractedFrame, c models.Classification) []models.ExtractedFrame {
	var out []models.ExtractedFrame
	for _, f := range frames {
		if f.Classification == c {
			out = append(out, f)
		}
	}
	return out
}

func breakdown(frames []models.ExtractedFrame) string {
	counts := map[string]int{}
	for _, f := range frames {
		counts[string(f.Classification)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
