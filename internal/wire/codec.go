// Package wire implements the IPP binary framing: decoding a request body
// into attribute groups and encoding a response back to bytes.
//
// The heavy lifting (attribute ordering, value-tag encode/decode, unknown
// tags passed through as opaque octet strings) is delegated to
// github.com/OpenPrinting/goipp, which already implements RFC 8010 framing
// byte-for-byte. This package adds the request/response semantics this
// system needs on top: the three decode failure modes, and the
// operation-attributes prelude every response must carry.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/OpenPrinting/goipp"
)

// Decode failure modes, surfaced by the handler as client-error-bad-request.
var (
	ErrTruncatedInput   = errors.New("wire: truncated input")
	ErrInvalidTag       = errors.New("wire: invalid or misplaced tag")
	ErrInvalidRequestID = errors.New("wire: request-id must be non-zero")
)

// Packet is a decoded IPP message together with its raw bytes, so that
// callers needing the unparsed payload (the document extractor) don't have
// to re-encode it.
type Packet struct {
	Version   goipp.Version
	Code      goipp.Code // operation-id for a request, status-code for a response
	RequestID uint32
	Groups    goipp.AttributeGroups
	Raw       []byte
}

// Decode parses the IPP header and attribute groups from body. body may
// contain trailing document bytes after the end-of-attributes tag; those
// are left untouched in Raw for the document extractor to locate.
func Decode(body []byte) (*Packet, error) {
	var msg goipp.Message
	err := msg.DecodeBytesEx(body, goipp.DecoderOptions{})
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTag, err)
	}

	if msg.RequestID == 0 {
		return nil, ErrInvalidRequestID
	}

	return &Packet{
		Version:   msg.Version,
		Code:      msg.Code,
		RequestID: msg.RequestID,
		Groups:    msg.Groups,
		Raw:       body,
	}, nil
}

// NewResponse builds a response message carrying the mandatory
// Operation-Attributes prelude (attributes-charset, attributes-natural-
// language) as its first group. Every response this printer sends must
// carry this prelude before any other attribute group.
func NewResponse(status goipp.Status, requestID uint32) *goipp.Message {
	msg := goipp.NewResponse(goipp.DefaultVersion, status, requestID)
	op := msg.Operation()
	op.Add(NewAttr("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	op.Add(NewAttr("attributes-natural-language", goipp.TagLanguage, goipp.String("en")))
	return msg
}

// NewAttr builds a single-or-multi-valued attribute sharing one value tag,
// the common case for every attribute this system emits.
func NewAttr(name string, tag goipp.Tag, vals ...goipp.Value) goipp.Attribute {
	attr := goipp.Attribute{Name: name}
	for _, v := range vals {
		attr.AddValue(tag, v)
	}
	return attr
}

// Encode serializes msg back to IPP binary framing.
func Encode(msg *goipp.Message) ([]byte, error) {
	return msg.EncodeBytes()
}
