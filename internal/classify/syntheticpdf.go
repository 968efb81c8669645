package classify

import "fmt"

// SyntheticPDF wraps payload as an opaque stream object inside a minimal
// valid PDF: one page, one content stream holding the raw bytes. It isn't
// meant to render; it exists so a PDF-expecting consumer gets back a
// well-formed file instead of whatever the client actually sent.
func SyntheticPDF(payload []byte) []byte {
	var objs []string

	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(payload), string(payload)))

	header := "%PDF-1.4\n"
	buf := []byte(header)

	offsets := make([]int, len(objs)+1) // 1-indexed, offsets[0] unused
	for i, body := range objs {
		offsets[i+1] = len(buf)
		buf = append(buf, []byte(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, body))...)
	}

	xrefStart := len(buf)
	buf = append(buf, []byte(fmt.Sprintf("xref\n0 %d\n", len(objs)+1))...)
	buf = append(buf, []byte("0000000000 65535 f \n")...)
	for i := 1; i <= len(objs); i++ {
		buf = append(buf, []byte(fmt.Sprintf("%010d 00000 n \n", offsets[i]))...)
	}

	buf = append(buf, []byte(fmt.Sprintf(
		"trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, xrefStart))...)

	return buf
}
