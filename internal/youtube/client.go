package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bdougie/ytframes/internal/models"
)

// ErrDownloadFailed is returned when the source video could not be fetched
var ErrDownloadFailed = errors.New("download failed")

// Client wraps the yt-dlp binary for metadata lookups and cached downloads
type Client struct {
	bin      string
	cacheDir string
	logger   *slog.Logger
}

// NewClient creates a client that stores downloads under cacheDir
func NewClient(bin, cacheDir string, logger *slog.Logger) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{
		bin:      bin,
		cacheDir: cacheDir,
		logger:   logger.With("component", "youtube"),
	}
}

// Available reports whether the yt-dlp binary can be found
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.bin)
	return err == nil
}

type infoDocument struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Channel  string           `json:"channel"`
	Duration float64          `json:"duration"`
	Chapters []models.Chapter `json:"chapters"`
}

// Info fetches title and chapter metadata without downloading the video
func (c *Client) Info(ctx context.Context, id string) (*models.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, c.bin,
		"--dump-single-json",
		"--skip-download",
		"--no-warnings",
		"--quiet",
		WatchURL(id),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata for %s: %w: %s", id, err, strings.TrimSpace(stderr.String()))
	}

	return parseInfo(out)
}

func parseInfo(data []byte) (*models.VideoInfo, error) {
	var doc infoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode video metadata: %w", err)
	}

	info := &models.VideoInfo{
		ID:       doc.ID,
		Title:    doc.Title,
		Channel:  doc.Channel,
		Duration: doc.Duration,
		Chapters: doc.Chapters,
	}
	if info.Chapters == nil {
		info.Chapters = []models.Chapter{}
	}
	return info, nil
}

// CachePath is where the downloaded video for id lives
func (c *Client) CachePath(id string) string {
	return filepath.Join(c.cacheDir, id+".mp4")
}

// Download fetches the video into the cache, reusing an existing copy
func (c *Client) Download(ctx context.Context, id string, maxHeight int) (string, error) {
	path := c.CachePath(id)
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		c.logger.Debug("using cached video", "path", path)
		return path, nil
	}

	if !c.Available() {
		return "", fmt.Errorf("%s not found: %w", c.bin, ErrDownloadFailed)
	}

	if err := os.MkdirAll(c.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create cache directory '%s': %w", c.cacheDir, err)
	}

	format := fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]/best", maxHeight, maxHeight)
	c.logger.Info("downloading video", "video_id", id, "format", format)

	cmd := exec.CommandContext(ctx, c.bin,
		"--format", format,
		"--output", path,
		"--no-playlist",
		"--no-warnings",
		"--quiet",
		WatchURL(id),
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp failed: %v: %s: %w", err, strings.TrimSpace(string(output)), ErrDownloadFailed)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("expected download at '%s': %w", path, ErrDownloadFailed)
	}
	return path, nil
}

// Purge removes the cached video for id and reports whether one existed
func (c *Client) Purge(id string) (bool, error) {
	err := os.Remove(c.CachePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove cached video %s: %w", id, err)
	}
	return true, nil
}

// PurgeAll removes every cached video and returns how many were deleted
func (c *Client) PurgeAll() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, "*.mp4"))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return removed, fmt.Errorf("remove cached video '%s': %w", m, err)
		}
		removed++
	}
	return removed, nil
}
