package asset

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKnownFormats(t *testing.T) {
	src := checker(5, 4)

	var pngBuf, jpgBuf, gifBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, jpeg.Encode(&jpgBuf, src, nil))
	require.NoError(t, gif.Encode(&gifBuf, src, nil))

	for name, buf := range map[string]*bytes.Buffer{"png": &pngBuf, "jpeg": &jpgBuf, "gif": &gifBuf} {
		img, format, err := Decode(buf)
		require.NoError(t, err, name)
		assert.Equal(t, name, format)
		assert.Equal(t, image.Rect(0, 0, 5, 4), img.Bounds())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, ErrUnsupported)

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, checker(8, 8)))
	truncated := pngBuf.Bytes()[:pngBuf.Len()/2]
	_, _, err = Decode(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrUnsupported)
}
