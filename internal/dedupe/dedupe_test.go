package dedupe

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/ytframes/internal/models"
)

type mapHasher map[string]uint64

func (m mapHasher) Hash(path string) (uint64, error) {
	h, ok := m[path]
	if !ok {
		return 0, errors.New("corrupt image")
	}
	return h, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paths(cs []models.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Path
	}
	return out
}

func TestDedupeDropsNearDuplicates(t *testing.T) {
	h := mapHasher{
		"a": 0x0000000000000000,
		"b": 0x000000000000000f, // 4 bits from a
		"c": 0xffffffffffffffff,
		"d": 0xfffffffffffffff0, // 4 bits from c
	}
	d := New(h, 10, discard())

	in := []models.Candidate{{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}}
	got := d.Dedupe(in)

	assert.Equal(t, []string{"a", "c"}, paths(got))
	assert.Equal(t, "0000000000000000", got[0].Fingerprint)
	assert.Equal(t, "ffffffffffffffff", got[1].Fingerprint)
}

func TestDedupeComparesOnlyAccepted(t *testing.T) {
	// b is close to a and dropped; c is close to b but far from a, so it stays.
	h := mapHasher{
		"a": 0x0000000000000000,
		"b": 0x00000000000000ff,
		"c": 0x000000000000ffff,
	}
	got := New(h, 10, discard()).Dedupe([]models.Candidate{{Path: "a"}, {Path: "b"}, {Path: "c"}})
	assert.Equal(t, []string{"a", "c"}, paths(got))
}

func TestDedupeThresholdIsStrict(t *testing.T) {
	h := mapHasher{"a": 0, "b": 0x3ff} // exactly 10 bits
	got := New(h, 10, discard()).Dedupe([]models.Candidate{{Path: "a"}, {Path: "b"}})
	assert.Len(t, got, 2)
}

func TestDedupeIdempotent(t *testing.T) {
	h := mapHasher{"a": 0, "b": 0x1, "c": 0xffff0000, "d": 0xffffffff00000000}
	d := New(h, 10, discard())

	in := []models.Candidate{{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}}
	once := d.Dedupe(in)
	twice := d.Dedupe(once)
	assert.Equal(t, paths(once), paths(twice))
}

func TestDedupeFailOpen(t *testing.T) {
	h := mapHasher{"a": 0, "c": 0}
	got := New(h, 10, discard()).Dedupe([]models.Candidate{{Path: "a"}, {Path: "broken"}, {Path: "c"}})

	assert.Equal(t, []string{"a", "broken"}, paths(got))
	assert.Empty(t, got[1].Fingerprint)
	assert.True(t, got[1].FingerprintFailed)
	assert.False(t, got[0].FingerprintFailed)
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, New(mapHasher{}, 10, discard()).Dedupe(nil))
}

func writeNoise(t *testing.T, path string, seed int64) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	var cells [8][8]uint8
	for y := range cells {
		for x := range cells[y] {
			cells[y][x] = uint8(r.Intn(256))
		}
	}

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: cells[y/8][x/8]})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestPHashOnRealImages(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	c := filepath.Join(dir, "c.png")
	writeNoise(t, a, 1)
	writeNoise(t, b, 1)
	writeNoise(t, c, 2)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

	got := New(nil, DefaultThreshold, discard()).Dedupe([]models.Candidate{
		{Path: a}, {Path: b}, {Path: bad}, {Path: c},
	})
	assert.Equal(t, []string{a, bad, c}, paths(got))
	assert.Len(t, got[0].Fingerprint, 16)
}
