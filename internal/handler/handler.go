// Package handler implements the IPP Operation Handler: a dispatch table
// keyed by operation id that turns decoded requests into responses, using
// the wire, extract, classify, jobstore, printerstate, and media packages.
//
// The dispatch table itself is grounded on rusq-thermoprint's
// ippsrv.basicIPPServer.ServeIPP (map[goipp.Op]IPPHandlerFunc), generalized
// here to the full operation set this printer supports plus a lenient
// fallback for anything else, since real-world IPP clients (CUPS, macOS)
// probe optional operations and abort the connection on any non-success
// status.
package handler

import (
	"fmt"
	"sync"

	"github.com/OpenPrinting/goipp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ipp-printer-sim/ipp-printer-sim/internal/classify"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/extract"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/jobstore"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/media"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/printerstate"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/wire"
)

// trackedJob is the Handler's own view of a job's lifecycle, separate from
// the Job Store's persisted artifact: Create-Job registers a job before any
// bytes exist, and Send-Document later transitions it.
type trackedJob struct {
	state        int32
	stateReasons string
}

// Handler dispatches decoded IPP requests. It holds a shared reference to
// PrinterState (read-mostly) and the Job Store (append-mostly); it never
// owns the listener or the backing directory itself.
type Handler struct {
	state *printerstate.State
	store *jobstore.Store
	media *media.Registry
	host  string    // host:port used to build printer-uri-supported and job-uri
	uuid  uuid.UUID // stable printer-uuid, derived from the printer name
	log   zerolog.Logger

	mu   sync.Mutex
	jobs map[uint32]*trackedJob
}

// New creates a Handler serving requests for the given printer state and
// job store. host is the externally reachable host:port, e.g.
// "printer.local:8631". id is the printer's stable UUID, reported as
// printer-uuid.
func New(state *printerstate.State, store *jobstore.Store, reg *media.Registry, host string, id uuid.UUID, log zerolog.Logger) *Handler {
	return &Handler{
		state: state,
		store: store,
		media: reg,
		host:  host,
		uuid:  id,
		log:   log.With().Str("component", "handler").Logger(),
		jobs:  make(map[uint32]*trackedJob),
	}
}

type opFunc func(h *Handler, req *wire.Packet) *goipp.Message

// dispatch maps operation ids to their handler function. Built once; it's
// read-only for the lifetime of the process.
var dispatch = map[goipp.Op]opFunc{
	goipp.OpGetPrinterAttributes: (*Handler).handleGetPrinterAttributes,
	goipp.OpValidateJob:          (*Handler).handleValidateJob,
	goipp.OpPrintJob:             (*Handler).handlePrintJob,
	goipp.OpCreateJob:            (*Handler).handleCreateJob,
	goipp.OpSendDocument:         (*Handler).handleSendDocument,
	goipp.OpGetJobAttributes:     (*Handler).handleGetJobAttributes,
	goipp.OpGetJobs:              (*Handler).handleGetJobs,
	goipp.OpCancelJob:            (*Handler).handleCancelJob,
	goipp.OpHoldJob:              (*Handler).handleHoldJob,
	goipp.OpReleaseJob:           (*Handler).handleReleaseJob,
	goipp.OpPausePrinter:         (*Handler).handlePausePrinter,
	goipp.OpResumePrinter:        (*Handler).handleResumePrinter,
	goipp.OpPurgeJobs:            (*Handler).handlePurgeJobs,
}

// operationsSupported lists every operation id this printer reports via
// operations-supported, dispatch table entries plus nothing else (the
// lenient fallback handles anything not in this list too, but we don't
// advertise support for operations we only tolerate).
var operationsSupported = []goipp.Op{
	goipp.OpPrintJob,
	goipp.OpValidateJob,
	goipp.OpCreateJob,
	goipp.OpSendDocument,
	goipp.OpCancelJob,
	goipp.OpGetJobAttributes,
	goipp.OpGetJobs,
	goipp.OpGetPrinterAttributes,
	goipp.OpHoldJob,
	goipp.OpReleaseJob,
	goipp.OpPausePrinter,
	goipp.OpResumePrinter,
	goipp.OpPurgeJobs,
}

// documentFormatsSupported is the minimum document-format-supported set
// this printer must advertise.
var documentFormatsSupported = []string{
	"application/pdf",
	"application/octet-stream",
	"image/jpeg",
	"image/png",
	"text/plain",
}

// Handle decodes body, dispatches it, and returns the encoded response. Any
// decode failure is reported as client-error-bad-request with request-id 0
// (the request-id can't be trusted once decode fails).
func (h *Handler) Handle(body []byte) ([]byte, error) {
	pkt, err := wire.Decode(body)
	if err != nil {
		h.log.Warn().Err(err).Msg("decode failed")
		resp := wire.NewResponse(goipp.StatusErrorBadRequest, 0)
		return wire.Encode(resp)
	}

	h.log.Debug().
		Str("op", fmt.Sprintf("0x%04x", uint16(pkt.Code))).
		Uint32("request_id", pkt.RequestID).
		Msg("dispatching request")

	resp := h.dispatchWithFaultInjection(pkt)

	return wire.Encode(resp)
}

func (h *Handler) dispatchWithFaultInjection(pkt *wire.Packet) *goipp.Message {
	op := goipp.Op(pkt.Code)
	mode := h.state.FaultMode()

	switch mode {
	case printerstate.FaultServerError:
		return wire.NewResponse(goipp.StatusErrorInternalError, pkt.RequestID)
	case printerstate.FaultClientError:
		return wire.NewResponse(goipp.StatusErrorBadRequest, pkt.RequestID)
	case printerstate.FaultAborted:
		if op == goipp.OpPrintJob || op == goipp.OpCreateJob {
			return h.abortedJobResponse(pkt.RequestID)
		}
	case printerstate.FaultUnsupportedFormat:
		if op == goipp.OpPrintJob || op == goipp.OpValidateJob {
			return wire.NewResponse(goipp.StatusErrorDocumentFormatNotSupported, pkt.RequestID)
		}
	}

	fn, ok := dispatch[op]
	if !ok {
		// Any other operation: successful-ok, no additional groups.
		// Clients probing optional operations abort on anything else.
		return wire.NewResponse(goipp.StatusOk, pkt.RequestID)
	}
	return fn(h, pkt)
}

// abortedJobResponse synthesizes the canceled Job-Attributes group the
// aborted fault mode requires for Print-Job/Create-Job.
func (h *Handler) abortedJobResponse(requestID uint32) *goipp.Message {
	resp := wire.NewResponse(goipp.StatusErrorNotPossible, requestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(7)))
	job.Add(wire.NewAttr("job-state-reasons", goipp.TagKeyword, goipp.String("job-canceled-by-system")))
	return resp
}

func (h *Handler) handleGetPrinterAttributes(req *wire.Packet) *goipp.Message {
	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)

	if override, ok := h.state.CustomPrinterAttributes(); ok {
		printer := resp.Printer()
		for _, attr := range override {
			printer.Add(attr)
		}
		return resp
	}

	printer := resp.Printer()
	reasons := h.state.StateReasons()
	reasonVals := make([]goipp.Value, len(reasons))
	for i, r := range reasons {
		reasonVals[i] = goipp.String(r)
	}

	printer.Add(wire.NewAttr("printer-name", goipp.TagName, goipp.String(h.state.Name())))
	printer.Add(wire.NewAttr("printer-state", goipp.TagEnum, goipp.Integer(3))) // idle
	printer.Add(wire.NewAttr("printer-state-reasons", goipp.TagKeyword, reasonVals...))
	printer.Add(wire.NewAttr("printer-is-accepting-jobs", goipp.TagBoolean, goipp.Boolean(h.state.Accepting())))
	printer.Add(wire.NewAttr("printer-uri-supported", goipp.TagURI, goipp.String(fmt.Sprintf("ipp://%s/", h.host))))
	printer.Add(wire.NewAttr("printer-uuid", goipp.TagURI, goipp.String("urn:uuid:"+h.uuid.String())))
	printer.Add(wire.NewAttr("printer-location", goipp.TagText, goipp.String("")))
	printer.Add(wire.NewAttr("printer-info", goipp.TagText, goipp.String(h.state.Name())))
	printer.Add(wire.NewAttr("printer-make-and-model", goipp.TagText, goipp.String("IPP Printer Simulator")))

	formatVals := make([]goipp.Value, len(documentFormatsSupported))
	for i, f := range documentFormatsSupported {
		formatVals[i] = goipp.String(f)
	}
	printer.Add(wire.NewAttr("document-format-supported", goipp.TagMimeType, formatVals...))
	printer.Add(wire.NewAttr("document-format-default", goipp.TagMimeType, goipp.String("application/pdf")))

	printer.Add(wire.NewAttr("media-default", goipp.TagKeyword, goipp.String(h.media.Default())))
	mediaVals := make([]goipp.Value, 0, len(h.media.Names()))
	for _, m := range h.media.Names() {
		mediaVals = append(mediaVals, goipp.String(m))
	}
	printer.Add(wire.NewAttr("media-supported", goipp.TagKeyword, mediaVals...))

	opVals := make([]goipp.Value, len(operationsSupported))
	for i, op := range operationsSupported {
		opVals[i] = goipp.Integer(op)
	}
	printer.Add(wire.NewAttr("operations-supported", goipp.TagEnum, opVals...))
	printer.Add(wire.NewAttr("color-supported", goipp.TagBoolean, goipp.Boolean(true)))

	return resp
}

func (h *Handler) handleValidateJob(req *wire.Packet) *goipp.Message {
	return wire.NewResponse(goipp.StatusOk, req.RequestID)
}

// documentFormatOf reads the document-format attribute from a request's
// Operation-Attributes group, defaulting to octet-stream per RFC 8011.
func documentFormatOf(req *wire.Packet) string {
	for _, g := range req.Groups {
		if g.Tag != goipp.TagOperationGroup {
			continue
		}
		for _, attr := range g.Attrs {
			if attr.Name == "document-format" && len(attr.Values) > 0 {
				if s, ok := attr.Values[0].V.(goipp.String); ok {
					return string(s)
				}
			}
		}
	}
	return "application/octet-stream"
}

// intAttr reads an integer-valued Operation-Attribute by name.
func intAttr(req *wire.Packet, name string) (int32, bool) {
	for _, g := range req.Groups {
		if g.Tag != goipp.TagOperationGroup {
			continue
		}
		for _, attr := range g.Attrs {
			if attr.Name == name && len(attr.Values) > 0 {
				if v, ok := attr.Values[0].V.(goipp.Integer); ok {
					return int32(v), true
				}
			}
		}
	}
	return 0, false
}

// boolAttr reads a boolean-valued Operation-Attribute by name.
func boolAttr(req *wire.Packet, name string, deflt bool) bool {
	for _, g := range req.Groups {
		if g.Tag != goipp.TagOperationGroup {
			continue
		}
		for _, attr := range g.Attrs {
			if attr.Name == name && len(attr.Values) > 0 {
				if v, ok := attr.Values[0].V.(goipp.Boolean); ok {
					return bool(v)
				}
			}
		}
	}
	return deflt
}
