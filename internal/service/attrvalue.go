package service

import (
	"fmt"
	"strconv"

	"github.com/OpenPrinting/goipp"
)

// tagByKeyword maps the RFC 8010 keyword spelling of a value tag (as used
// in a YAML config file) to its goipp.Tag, for custom_printer_attributes
// overrides. Only the tag families this printer's own attributes use are
// supported; anything else is a configuration error.
var tagByKeyword = map[string]goipp.Tag{
	"integer":         goipp.TagInteger,
	"boolean":         goipp.TagBoolean,
	"enum":            goipp.TagEnum,
	"keyword":         goipp.TagKeyword,
	"uri":             goipp.TagURI,
	"charset":         goipp.TagCharset,
	"naturalLanguage": goipp.TagLanguage,
	"mimeMediaType":   goipp.TagMimeType,
	"text":            goipp.TagText,
	"name":            goipp.TagName,
}

// valueForTag parses s as the Go value goipp expects for tag.
func valueForTag(tag goipp.Tag, s string) (goipp.Value, error) {
	switch tag {
	case goipp.TagInteger, goipp.TagEnum:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		return goipp.Integer(n), nil
	case goipp.TagBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", s)
		}
		return goipp.Boolean(b), nil
	default:
		return goipp.String(s), nil
	}
}
