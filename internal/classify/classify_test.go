package classify

import (
	"bytes"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"pdf", []byte("%PDF-1.7 rest of file"), FormatPDF},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, FormatJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0}, FormatPNG},
		{"postscript", []byte("%!PS-Adobe-3.0"), FormatPostScript},
		{"gif87", []byte("GIF87a stuff"), FormatGIF},
		{"gif89", []byte("GIF89a stuff"), FormatGIF},
		{"bmp", []byte{0x42, 0x4D, 0, 0, 0}, FormatBMP},
		{"text", []byte("Hello, this is a plain text document.\n"), FormatText},
		{"binary unknown", []byte{0x00, 0x01, 0x02, 0xFE, 0xFF, 0x10, 0x20, 0x05}, FormatUnknown},
		{"empty", []byte{}, FormatUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Detect(c.data); got != c.want {
				t.Errorf("Detect(%q) = %v, want %v", c.data, got, c.want)
			}
		})
	}
}

func TestDetectTextThreshold(t *testing.T) {
	mostlyBinary := append([]byte("ab"), 0xFF, 0xFE, 0xFD, 0xFC, 0xFB, 0xFA, 0xF9, 0xF8)
	if got := Detect(mostlyBinary); got != FormatUnknown {
		t.Errorf("Detect(mostly binary) = %v, want %v", got, FormatUnknown)
	}
}

func TestShouldWrapSynthetic(t *testing.T) {
	cases := []struct {
		name     string
		detected Format
		declared string
		want     bool
	}{
		{"unknown + pdf declared", FormatUnknown, "application/pdf", true},
		{"unknown + octet-stream declared", FormatUnknown, "application/octet-stream", true},
		{"unknown + cups-raster declared", FormatUnknown, "application/cups-raster", true},
		{"unknown + text declared", FormatUnknown, "text/plain", false},
		{"pdf detected never wraps", FormatPDF, "application/pdf", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ShouldWrapSynthetic(c.detected, c.declared); got != c.want {
				t.Errorf("ShouldWrapSynthetic(%v, %q) = %v, want %v", c.detected, c.declared, got, c.want)
			}
		})
	}
}

func TestSyntheticPDFWellFormed(t *testing.T) {
	payload := []byte("arbitrary raw bytes that are not a pdf")
	pdf := SyntheticPDF(payload)

	if !bytes.HasPrefix(pdf, []byte("%PDF-1.4")) {
		t.Error("synthetic PDF missing header")
	}
	if !bytes.Contains(pdf, payload) {
		t.Error("synthetic PDF does not carry the original payload")
	}
	if !strings.Contains(string(pdf), "xref") || !strings.Contains(string(pdf), "trailer") {
		t.Error("synthetic PDF missing xref/trailer")
	}
	if !bytes.HasSuffix(bytes.TrimRight(pdf, "\n"), []byte("%%EOF")) {
		t.Errorf("synthetic PDF missing %s terminator", "%%EOF")
	}
	if Detect(pdf) != FormatPDF {
		t.Error("synthetic PDF not self-classified as PDF")
	}
}
