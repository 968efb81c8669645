// Package classify identifies the MIME type of document bytes by leading
// signature and decides how a job's payload should be persisted.
//
// The signature table follows the matchEntry{prefix, mtype} pattern used by
// perkeep's internal/magic package: an ordered list of byte prefixes, first
// match wins, falling back to a content heuristic when nothing matches.
package classify

import (
	"bytes"
	"strings"
)

// Format is a detected or declared document MIME family.
type Format string

const (
	FormatPDF        Format = "application/pdf"
	FormatJPEG       Format = "image/jpeg"
	FormatPNG        Format = "image/png"
	FormatPostScript Format = "application/postscript"
	FormatGIF        Format = "image/gif"
	FormatBMP        Format = "image/bmp"
	FormatText       Format = "text/plain"
	FormatUnknown    Format = "application/octet-stream"
)

type matchEntry struct {
	prefix []byte
	format Format
}

// matchTable is checked in order; the first matching prefix wins.
var matchTable = []matchEntry{
	{prefix: []byte("%PDF"), format: FormatPDF},
	{prefix: []byte{0xFF, 0xD8, 0xFF}, format: FormatJPEG},
	{prefix: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, format: FormatPNG},
	{prefix: []byte("%!"), format: FormatPostScript},
	{prefix: []byte("GIF87a"), format: FormatGIF},
	{prefix: []byte("GIF89a"), format: FormatGIF},
	{prefix: []byte{0x42, 0x4D}, format: FormatBMP},
}

// textThreshold is the fraction of bytes in the printable/whitespace set
// required before unrecognized bytes are classified as text/plain.
const textThreshold = 0.70

// Detect returns the Format implied by data's leading bytes.
func Detect(data []byte) Format {
	for _, entry := range matchTable {
		if bytes.HasPrefix(data, entry.prefix) {
			return entry.format
		}
	}

	if looksLikeText(data) {
		return FormatText
	}

	return FormatUnknown
}

func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	printable := 0
	for _, b := range data {
		if b == 9 || b == 10 || b == 13 || (b >= 32 && b <= 126) {
			printable++
		}
	}

	return float64(printable)/float64(len(data)) >= textThreshold
}

// extensions maps a detected format to the file extension it's saved under.
var extensions = map[Format]string{
	FormatPDF:        "pdf",
	FormatJPEG:       "jpg",
	FormatPNG:        "png",
	FormatPostScript: "ps",
	FormatGIF:        "gif",
	FormatBMP:        "bmp",
	FormatText:       "txt",
	FormatUnknown:    "raw",
}

// Extension returns the filename suffix a job persisted as format f should
// use, without the leading dot.
func Extension(f Format) string {
	if ext, ok := extensions[f]; ok {
		return ext
	}
	return "raw"
}

// declaredWrapsAsPDF is the set of client-declared document-format values
// that, combined with an unrecognized detected format, still warrant a
// synthetic PDF wrapper so that a PDF-expecting consumer gets a valid file.
var declaredWrapsAsPDF = map[string]bool{
	"application/pdf":          true,
	"application/postscript":   true,
	"application/octet-stream": true,
}

// HasCUPSPrefix reports whether declared names a CUPS-specific document
// format (application/cups-raster, application/vnd.cups-pdf, and similar).
func HasCUPSPrefix(declared string) bool {
	return strings.HasPrefix(declared, "application/cups-") ||
		strings.HasPrefix(declared, "application/vnd.cups-")
}

// ShouldWrapSynthetic decides whether an unrecognized payload should be
// accompanied by a synthetic PDF wrapper, per the persistence policy table:
// unknown detected format wraps when the client declared pdf, postscript,
// a cups-* format, or plain octet-stream; anything else is saved raw only.
func ShouldWrapSynthetic(detected Format, declared string) bool {
	if detected != FormatUnknown {
		return false
	}
	return declaredWrapsAsPDF[declared] || HasCUPSPrefix(declared)
}
