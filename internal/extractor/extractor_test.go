package extractor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
}

func TestParsePTSTimes(t *testing.T) {
	out := `[Parsed_showinfo_1 @ 0x1] n:   0 pts:  10240 pts_time:10      duration:512
[Parsed_showinfo_1 @ 0x1] n:   1 pts:  97280 pts_time:95.04   duration:512
frame=    2 fps=0.0 q=-0.0 Lsize=N/A time=00:03:00.00`

	assert.Equal(t, []float64{10, 95.04}, ParsePTSTimes(out))
	assert.Empty(t, ParsePTSTimes("no timing information"))
}

func TestCheckMissingBinary(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "ffmpeg"), discard())
	assert.False(t, f.Available())
	assert.ErrorIs(t, f.Check(), ErrFFmpegNotFound)
	assert.EqualError(t, f.Check(), "ffmpeg not found. Please install ffmpeg.")
}

func TestFFmpegSampling(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	video := filepath.Join(dir, "test.mp4")
	gen := exec.Command("ffmpeg", "-f", "lavfi", "-i", "testsrc=duration=4:size=160x120:rate=10", "-pix_fmt", "yuv420p", video, "-y")
	require.NoError(t, gen.Run())

	f := NewFFmpeg("ffmpeg", discard())
	ctx := context.Background()

	paths, err := f.SampleEvery(ctx, video, 1, filepath.Join(dir, "raw"), "interval_")
	require.NoError(t, err)
	assert.NotEmpty(t, paths)

	keys, times, err := f.SelectFrames(ctx, video, "select='eq(pict_type,I)'", filepath.Join(dir, "raw"), "keyframe_")
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
	assert.NotEmpty(t, times)

	out := filepath.Join(dir, "raw", "chapter_00.png")
	require.NoError(t, f.FrameAt(ctx, video, 1, out))
	_, err = os.Stat(out)
	assert.NoError(t, err)
}
