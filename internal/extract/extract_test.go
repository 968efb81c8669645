package extract

import (
	"bytes"
	"testing"
)

func header(opTagByte byte) []byte {
	return []byte{0x01, 0x01, 0x00, opTagByte, 0x00, 0x00, 0x00, 0x01}
}

func TestDocumentAfterEndTag(t *testing.T) {
	body := append(header(0x02), 0x01, tagEnd)
	body = append(body, []byte("hello document")...)

	got := Document(body)
	if !bytes.Equal(got, []byte("hello document")) {
		t.Errorf("Document() = %q, want %q", got, "hello document")
	}
}

func TestDocumentSkipsPadding(t *testing.T) {
	body := append(header(0x02), 0x01, tagEnd)
	body = append(body, 0x00, 0x00, '\r', '\n')
	body = append(body, []byte("%PDF-1.4 rest")...)

	got := Document(body)
	if !bytes.Equal(got, []byte("%PDF-1.4 rest")) {
		t.Errorf("Document() = %q, want %q", got, "%PDF-1.4 rest")
	}
}

func TestDocumentFallsBackToPDFScan(t *testing.T) {
	body := append(header(0x02), []byte("junk-no-terminator-tag")...)
	body = append(body, []byte("%PDF-1.7 content")...)

	got := Document(body)
	if !bytes.Equal(got, []byte("%PDF-1.7 content")) {
		t.Errorf("Document() = %q, want %q", got, "%PDF-1.7 content")
	}
}

func TestDocumentEmptyWhenNothingFound(t *testing.T) {
	body := append(header(0x02), []byte("no tag and no pdf prefix here")...)

	got := Document(body)
	if len(got) != 0 {
		t.Errorf("Document() = %q, want empty", got)
	}
}

func TestDocumentEmptyOnShortBody(t *testing.T) {
	got := Document([]byte{0x01, 0x01, 0x00, 0x02})
	if len(got) != 0 {
		t.Errorf("Document() = %q, want empty", got)
	}
}

// Payload isolation: the extracted document is identical bytes in, identical
// bytes out, whether or not attributes precede the end tag, as long as no
// attribute byte is itself 0x03 (the scan stops at the first such byte).
func TestDocumentIsolatesPayloadFromAttributes(t *testing.T) {
	payload := []byte("the quick brown fox jumps")

	attrsOnly := append(header(0x02), 0x01, tagEnd)
	withExtraAttrs := append(header(0x02), []byte{0x01, 0x47, 0x00, 0x04, 'n', 'a', 'm', 'e', 0x00, 0x04, 'f', 'o', 'o', 'd'}...)
	withExtraAttrs = append(withExtraAttrs, tagEnd)

	got1 := Document(append(attrsOnly, payload...))
	got2 := Document(append(withExtraAttrs, payload...))

	if !bytes.Equal(got1, payload) || !bytes.Equal(got2, payload) {
		t.Errorf("payload isolation failed: got1=%q got2=%q want=%q", got1, got2, payload)
	}
}
