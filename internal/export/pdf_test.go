package export

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJpegPdfXrefPointsAtObjects(t *testing.T) {
	// Fake JPEG payload containing bytes that look like PDF syntax.
	jpeg := []byte("\xff\xd8 1 0 obj endstream \x00\xff\xd9")
	out := string(BuildJpegPdf(jpeg, 640.4, 479.6))

	require.True(t, strings.HasPrefix(out, "%PDF-1.4\n"))
	require.True(t, strings.HasSuffix(out, "%%EOF\n"))

	sx := strings.LastIndex(out, "startxref\n")
	require.NotEqual(t, -1, sx)
	rest := out[sx+len("startxref\n"):]
	xrefStart, err := strconv.Atoi(rest[:strings.IndexByte(rest, '\n')])
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out[xrefStart:], "xref\n0 6\n"))

	table := out[xrefStart+len("xref\n0 6\n"):]
	assert.Equal(t, "0000000000 65535 f\r\n", table[:20])
	for n := 1; n <= 5; n++ {
		entry := table[n*20 : (n+1)*20]
		require.True(t, strings.HasSuffix(entry, " 00000 n\r\n"), "entry %d: %q", n, entry)
		off, err := strconv.Atoi(entry[:10])
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out[off:], fmt.Sprintf("%d 0 obj\n", n)), "object %d at %d", n, off)
	}
	assert.True(t, strings.HasPrefix(table[6*20:], "trailer\n<< /Size 6 /Root 1 0 R >>\n"))
}

func TestBuildJpegPdfEmbedsImageVerbatim(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0x01, 0x02, 0x03, 0xff, 0xd9}
	out := string(BuildJpegPdf(jpeg, 320, 200))

	assert.Contains(t, out, "/MediaBox [0 0 320 200]")
	assert.Contains(t, out, "/Width 320 /Height 200")
	assert.Contains(t, out, "/Filter /DCTDecode /Length 7\n")
	assert.Contains(t, out, "stream\n"+string(jpeg)+"\nendstream")
	assert.Contains(t, out, "q 320 0 0 200 0 0 cm /Im0 Do Q\n")
}
