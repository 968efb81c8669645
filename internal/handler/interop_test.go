package handler

// Interop test using phin1x/go-ipp as an independent client-side encoder,
// the same library the teacher used to talk to CUPS in
// internal/ipp/cups_proxy.go. Here it drives this server instead, giving us
// a second, independent implementation of the wire format on the client
// side of the round trip.

import (
	"bytes"
	"testing"

	ipp "github.com/phin1x/go-ipp"
)

func TestInteropPrintJobWithPhin1xClient(t *testing.T) {
	h, store := newTestHandler(t)

	req := ipp.NewRequest(ipp.OperationPrintJob, 1)
	req.OperationAttributes["printer-uri"] = "ipp://localhost:8631/"
	req.OperationAttributes["requesting-user-name"] = "interop-test"
	req.OperationAttributes["document-format"] = "application/pdf"

	payload, err := req.Encode()
	if err != nil {
		t.Fatalf("encoding client request: %v", err)
	}

	doc := []byte("%PDF-1.4\ninterop payload\n%%EOF")
	full := append(payload, doc...)

	respRaw, err := h.Handle(full)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	resp, err := ipp.NewResponseDecoder(bytes.NewReader(respRaw)).Decode(nil)
	if err != nil {
		t.Fatalf("decoding server response with client decoder: %v", err)
	}
	if resp.StatusCode != ipp.StatusOk {
		t.Fatalf("status = %v, want StatusOk", resp.StatusCode)
	}

	jobs, err := store.List()
	if err != nil || len(jobs) == 0 {
		t.Fatalf("expected persisted job, got %v, err %v", jobs, err)
	}
}
