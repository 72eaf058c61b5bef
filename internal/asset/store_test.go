package asset

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	img := checker(3, 2)

	id, err := s.Put(img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "asset_"), id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Same(t, img, got)

	_, err = s.Get("asset_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiskStorePersistsPNG(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)

	id, err := s.Put(checker(4, 3))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, id+".png"))
	require.NoError(t, err)

	// A fresh store has to go to disk.
	reopened, err := NewDiskStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(id)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), got.Bounds())
	r, g, b, a := got.At(1, 0).RGBA()
	assert.Equal(t, [4]uint32{0, 0, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestDiskStoreRejectsForeignIDs(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"../etc/passwd", "obj_01h455vb4pex5vsknk084sn02q", ""} {
		_, err := s.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestDiskStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)
	id, err := s.Put(checker(1, 1))
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrNotFound)
}
