package export

import (
	"bytes"
	"fmt"
	"math"
)

// BuildJpegPdf wraps JPEG bytes in a single-page PDF 1.4 document whose
// MediaBox matches the raster size. The JPEG stream is embedded verbatim
// with the DCTDecode filter.
//
// Objects: 1 Catalog, 2 Pages, 3 Page, 4 Image XObject, 5 content stream.
func BuildJpegPdf(jpeg []byte, width, height float64) []byte {
	w := int(math.Round(width))
	h := int(math.Round(height))

	var buf bytes.Buffer
	var offsets []int
	obj := func() { offsets = append(offsets, buf.Len()) }

	buf.WriteString("%PDF-1.4\n")

	obj()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	obj()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	obj()
	fmt.Fprintf(&buf, "3 0 obj\n"+
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d]\n"+
		"   /Resources << /XObject << /Im0 4 0 R >> >>\n"+
		"   /Contents 5 0 R\n"+
		">>\nendobj\n", w, h)

	obj()
	fmt.Fprintf(&buf, "4 0 obj\n"+
		"<< /Type /XObject /Subtype /Image /Width %d /Height %d\n"+
		"   /ColorSpace /DeviceRGB /BitsPerComponent 8\n"+
		"   /Filter /DCTDecode /Length %d\n"+
		">>\nstream\n", w, h, len(jpeg))
	buf.Write(jpeg)
	buf.WriteString("\nendstream\nendobj\n")

	// q W 0 0 H 0 0 cm maps the unit image square onto the page.
	obj()
	content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im0 Do Q\n", w, h)
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", len(content), content)

	// Every xref entry is exactly 20 bytes including the CRLF.
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart)

	return buf.Bytes()
}
