package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/ytframes/internal/models"
)

type fakeDecoder struct {
	selected   map[string][]float64 // prefix -> pts times
	frameCount int
	selectErr  error
	failAt     map[float64]bool
	offsets    []float64
}

func (f *fakeDecoder) SelectFrames(_ context.Context, _, _, dir, prefix string) ([]string, []float64, error) {
	if f.selectErr != nil {
		return nil, nil, f.selectErr
	}
	paths := make([]string, f.frameCount)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s%04d.png", prefix, i+1))
	}
	return paths, f.selected[prefix], nil
}

func (f *fakeDecoder) SampleEvery(_ context.Context, _ string, _ int, dir, prefix string) ([]string, error) {
	paths := make([]string, f.frameCount)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s%04d.png", prefix, i+1))
	}
	return paths, nil
}

func (f *fakeDecoder) FrameAt(_ context.Context, _ string, offset float64, _ string) error {
	f.offsets = append(f.offsets, offset)
	if f.failAt[offset] {
		return errors.New("no frame")
	}
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timestamps(cs []models.Candidate) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Timestamp
	}
	return out
}

func TestSceneChangeUsesPTSTimes(t *testing.T) {
	dec := &fakeDecoder{frameCount: 2, selected: map[string][]float64{"scene_": {10, 95}}}
	s, err := NewStrategy(SceneChangeName, dec, Params{SceneThreshold: 0.3}, discard())
	require.NoError(t, err)

	got := s.Sample(context.Background(), Source{Video: "v.mp4", Dir: t.TempDir()})
	assert.Equal(t, []float64{10, 95}, timestamps(got))
	for _, c := range got {
		assert.False(t, c.SyntheticTimestamp)
	}
}

func TestSceneChangeSyntheticFallback(t *testing.T) {
	dec := &fakeDecoder{frameCount: 3, selected: map[string][]float64{"scene_": {4.5}}}
	s, err := NewStrategy(SceneChangeName, dec, Params{SceneThreshold: 0.3}, discard())
	require.NoError(t, err)

	got := s.Sample(context.Background(), Source{Dir: t.TempDir()})
	assert.Equal(t, []float64{4.5, 10, 20}, timestamps(got))
	assert.False(t, got[0].SyntheticTimestamp)
	assert.True(t, got[1].SyntheticTimestamp)
	assert.True(t, got[2].SyntheticTimestamp)
}

func TestKeyframeFallbackStep(t *testing.T) {
	dec := &fakeDecoder{frameCount: 3}
	s, err := NewStrategy(KeyframeName, dec, Params{}, discard())
	require.NoError(t, err)

	got := s.Sample(context.Background(), Source{Dir: t.TempDir()})
	assert.Equal(t, []float64{0, 5, 10}, timestamps(got))
}

func TestIntervalTimestamps(t *testing.T) {
	dec := &fakeDecoder{frameCount: 4}
	s, err := NewStrategy(IntervalName, dec, Params{IntervalSeconds: 15}, discard())
	require.NoError(t, err)

	got := s.Sample(context.Background(), Source{Dir: t.TempDir()})
	assert.Equal(t, []float64{0, 15, 30, 45}, timestamps(got))
}

func TestDecoderFailureYieldsEmpty(t *testing.T) {
	dec := &fakeDecoder{selectErr: errors.New("ffmpeg failed")}
	s, err := NewStrategy(SceneChangeName, dec, Params{SceneThreshold: 0.3}, discard())
	require.NoError(t, err)

	assert.Empty(t, s.Sample(context.Background(), Source{Dir: t.TempDir()}))
}

func TestChaptersSkipsFailedCaptures(t *testing.T) {
	dec := &fakeDecoder{failAt: map[float64]bool{61: true}}
	s, err := NewStrategy(ChaptersName, dec, Params{}, discard())
	require.NoError(t, err)
	assert.True(t, s.RequiresChapters())

	chapters := []models.Chapter{{StartTime: 0}, {StartTime: 60}, {StartTime: 300}}
	got := s.Sample(context.Background(), Source{Dir: "raw", Chapters: chapters})

	assert.Equal(t, []float64{1, 61, 301}, dec.offsets)
	assert.Equal(t, []float64{0, 300}, timestamps(got))
	assert.Equal(t, filepath.Join("raw", "chapter_02.png"), got[1].Path)
}

func TestHybridMergesAndSorts(t *testing.T) {
	dec := &fakeDecoder{frameCount: 2, selected: map[string][]float64{"scene_": {10, 95}}}
	s, err := NewStrategy(HybridName, dec, Params{SceneThreshold: 0.3}, discard())
	require.NoError(t, err)
	assert.False(t, s.RequiresChapters())

	chapters := []models.Chapter{{StartTime: 0}, {StartTime: 60}}
	got := s.Sample(context.Background(), Source{Dir: "raw", Chapters: chapters})
	assert.Equal(t, []float64{0, 10, 60, 95}, timestamps(got))
}

func TestHybridWithoutChapters(t *testing.T) {
	dec := &fakeDecoder{frameCount: 2, selected: map[string][]float64{"scene_": {10, 95}}}
	s, err := NewStrategy(HybridName, dec, Params{SceneThreshold: 0.3}, discard())
	require.NoError(t, err)

	got := s.Sample(context.Background(), Source{Dir: "raw"})
	assert.Equal(t, []float64{10, 95}, timestamps(got))
	assert.Empty(t, dec.offsets)
}

func TestUnknownStrategy(t *testing.T) {
	_, err := NewStrategy("random", &fakeDecoder{}, Params{}, discard())
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
