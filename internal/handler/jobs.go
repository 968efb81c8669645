package handler

import (
	"fmt"

	"github.com/OpenPrinting/goipp"

	"github.com/ipp-printer-sim/ipp-printer-sim/internal/classify"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/extract"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/wire"
)

// job-state values used in responses. These are the literal codes this
// printer's redesigned job lifecycle uses; they diverge from the full RFC
// 8011 job-state enumeration in the Send-Document "more documents to
// follow" case, which reports 4 rather than the canonical processing (5).
const (
	jobStatePending    = 3
	jobStateProcessing = 5
	jobStateIncoming   = 4
	jobStateCompleted  = 9
	jobStateCanceled   = 7
)

func (h *Handler) jobURI(id uint32) string {
	return fmt.Sprintf("ipp://%s/jobs/%d", h.host, id)
}

// persistAndClassify extracts, classifies, and saves a document payload
// under id, returning the detected format or an error the caller maps to the
// right status code.
func (h *Handler) persistAndClassify(id uint32, body []byte, declaredFormat string) (format string, err error) {
	doc := extract.Document(body)
	if len(doc) == 0 {
		return "", fmt.Errorf("empty document payload")
	}

	detected := classify.Detect(doc)
	ext := classify.Extension(detected)

	if _, err := h.store.Save(id, doc, declaredFormat, string(detected), ext); err != nil {
		return "", err
	}

	if classify.ShouldWrapSynthetic(detected, declaredFormat) {
		wrapper := classify.SyntheticPDF(doc)
		if _, err := h.store.Save(id, wrapper, declaredFormat, string(detected), "pdf"); err != nil {
			h.log.Warn().Err(err).Uint32("job_id", id).Msg("failed to persist synthetic PDF wrapper")
		}
	}

	h.state.SetJobIDCounter(id)
	return string(detected), nil
}

func (h *Handler) handlePrintJob(req *wire.Packet) *goipp.Message {
	id := h.store.NextID()
	declared := documentFormatOf(req)

	if _, err := h.persistAndClassify(id, req.Raw, declared); err != nil {
		h.log.Error().Err(err).Uint32("job_id", id).Msg("print-job failed")
		return wire.NewResponse(goipp.StatusErrorBadRequest, req.RequestID)
	}

	h.mu.Lock()
	h.jobs[id] = &trackedJob{state: jobStateProcessing, stateReasons: "processing-to-stop-point"}
	h.mu.Unlock()

	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id)))
	job.Add(wire.NewAttr("job-uri", goipp.TagURI, goipp.String(h.jobURI(id))))
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(jobStateProcessing)))
	job.Add(wire.NewAttr("job-state-reasons", goipp.TagKeyword, goipp.String("processing-to-stop-point")))
	return resp
}

func (h *Handler) handleCreateJob(req *wire.Packet) *goipp.Message {
	id := h.store.NextID()
	h.state.SetJobIDCounter(id)

	h.mu.Lock()
	h.jobs[id] = &trackedJob{state: jobStatePending, stateReasons: "none"}
	h.mu.Unlock()

	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id)))
	job.Add(wire.NewAttr("job-uri", goipp.TagURI, goipp.String(h.jobURI(id))))
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(jobStatePending)))
	job.Add(wire.NewAttr("job-state-reasons", goipp.TagKeyword, goipp.String("none")))
	return resp
}

func (h *Handler) handleSendDocument(req *wire.Packet) *goipp.Message {
	id32, ok := intAttr(req, "job-id")
	if !ok {
		return wire.NewResponse(goipp.StatusErrorBadRequest, req.RequestID)
	}
	id := uint32(id32)
	last := boolAttr(req, "last-document", true)
	declared := documentFormatOf(req)

	if _, err := h.persistAndClassify(id, req.Raw, declared); err != nil {
		h.log.Error().Err(err).Uint32("job_id", id).Msg("send-document failed")
		return wire.NewResponse(goipp.StatusErrorBadRequest, req.RequestID)
	}

	state := int32(jobStateIncoming)
	reason := "job-incoming"
	if last {
		state = jobStateCompleted
		reason = "job-completed-successfully"
	}

	h.mu.Lock()
	h.jobs[id] = &trackedJob{state: state, stateReasons: reason}
	h.mu.Unlock()

	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id)))
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(state)))
	job.Add(wire.NewAttr("job-state-reasons", goipp.TagKeyword, goipp.String(reason)))
	return resp
}

// lookupJob returns the tracked state for id, defaulting to an unknown-but-
// present job so Get-Job-Attributes/Get-Jobs never fail on a job
// this process didn't itself create (e.g. after a restart).
func (h *Handler) lookupJob(id uint32) *trackedJob {
	h.mu.Lock()
	defer h.mu.Unlock()
	if j, ok := h.jobs[id]; ok {
		return j
	}
	return &trackedJob{state: jobStateCompleted, stateReasons: "none"}
}

func (h *Handler) handleGetJobAttributes(req *wire.Packet) *goipp.Message {
	id32, _ := intAttr(req, "job-id")
	id := uint32(id32)
	j := h.lookupJob(id)

	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id)))
	job.Add(wire.NewAttr("job-uri", goipp.TagURI, goipp.String(h.jobURI(id))))
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(j.state)))
	job.Add(wire.NewAttr("job-state-reasons", goipp.TagKeyword, goipp.String(j.stateReasons)))
	return resp
}

func (h *Handler) handleGetJobs(req *wire.Packet) *goipp.Message {
	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)

	jobs, err := h.store.List()
	if err != nil {
		h.log.Warn().Err(err).Msg("get-jobs: listing store failed")
		return resp
	}

	for _, stored := range jobs {
		j := h.lookupJob(stored.ID)
		group := resp.EnsureGroup(goipp.TagJobGroup)
		group.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(stored.ID)))
		group.Add(wire.NewAttr("job-uri", goipp.TagURI, goipp.String(h.jobURI(stored.ID))))
		group.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(j.state)))
	}
	return resp
}

func (h *Handler) handleCancelJob(req *wire.Packet) *goipp.Message {
	id32, _ := intAttr(req, "job-id")
	id := uint32(id32)

	h.mu.Lock()
	h.jobs[id] = &trackedJob{state: jobStateCanceled, stateReasons: "job-canceled-by-user"}
	h.mu.Unlock()

	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id)))
	job.Add(wire.NewAttr("job-state", goipp.TagEnum, goipp.Integer(jobStateCanceled)))
	return resp
}

func (h *Handler) handleHoldJob(req *wire.Packet) *goipp.Message {
	id32, _ := intAttr(req, "job-id")
	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id32)))
	return resp
}

func (h *Handler) handleReleaseJob(req *wire.Packet) *goipp.Message {
	id32, _ := intAttr(req, "job-id")
	resp := wire.NewResponse(goipp.StatusOk, req.RequestID)
	job := resp.Job()
	job.Add(wire.NewAttr("job-id", goipp.TagInteger, goipp.Integer(id32)))
	return resp
}

func (h *Handler) handlePausePrinter(req *wire.Packet) *goipp.Message {
	h.state.SetAccepting(false)
	return wire.NewResponse(goipp.StatusOk, req.RequestID)
}

func (h *Handler) handleResumePrinter(req *wire.Packet) *goipp.Message {
	h.state.SetAccepting(true)
	return wire.NewResponse(goipp.StatusOk, req.RequestID)
}

func (h *Handler) handlePurgeJobs(req *wire.Packet) *goipp.Message {
	if err := h.store.DeleteAll(); err != nil {
		h.log.Error().Err(err).Msg("purge-jobs failed")
		return wire.NewResponse(goipp.StatusErrorInternalError, req.RequestID)
	}

	h.mu.Lock()
	h.jobs = make(map[uint32]*trackedJob)
	h.mu.Unlock()

	return wire.NewResponse(goipp.StatusOk, req.RequestID)
}
