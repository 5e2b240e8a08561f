package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidVideoRef is returned when input is neither a video ID nor a known URL form
var ErrInvalidVideoRef = errors.New("invalid video reference")

var (
	rawIDPattern = regexp.MustCompile(`^[\w-]{11}$`)

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?(?:[^#]*&)?v=([\w-]{11})(?:[^\w-]|$)`),
		regexp.MustCompile(`youtu\.be/([\w-]{11})(?:[^\w-]|$)`),
		regexp.MustCompile(`youtube\.com/embed/([\w-]{11})(?:[^\w-]|$)`),
		regexp.MustCompile(`youtube\.com/v/([\w-]{11})(?:[^\w-]|$)`),
		regexp.MustCompile(`youtube\.com/shorts/([\w-]{11})(?:[^\w-]|$)`),
	}
)

// ParseVideoID resolves a raw 11-character ID or a YouTube URL to a video ID
func ParseVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if rawIDPattern.MatchString(ref) {
		return ref, nil
	}

	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(ref); m != nil {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("could not extract video ID from: %s: %w", ref, ErrInvalidVideoRef)
}

// WatchURL returns the canonical watch page for a video ID
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
