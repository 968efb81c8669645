// Package printerstate holds the printer's shared, mutable state: name,
// port, accepting/paused status, and the fault-injection mode. It is owned
// exclusively by the Service Manager and held by the IPP Operation Handler
// as a read-mostly shared reference, matching the ownership split the
// teacher's daemon/cups packages drew between the daemon owning config and
// the IPP server reading it per-request.
package printerstate

import (
	"sync"

	"github.com/OpenPrinting/goipp"
)

// Status is the printer's coarse operating state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusStopped    Status = "stopped"
)

// FaultMode selects a canned failure behavior the Handler applies instead of
// normal processing, for exercising client error handling.
type FaultMode string

const (
	FaultOff               FaultMode = "off"
	FaultServerError       FaultMode = "server-error"
	FaultClientError       FaultMode = "client-error"
	FaultAborted           FaultMode = "aborted"
	FaultUnsupportedFormat FaultMode = "unsupported-format"
)

// ParseFaultMode validates a configured fault mode string, defaulting to
// FaultOff for an empty value.
func ParseFaultMode(s string) (FaultMode, bool) {
	switch FaultMode(s) {
	case "", FaultOff:
		return FaultOff, true
	case FaultServerError, FaultClientError, FaultAborted, FaultUnsupportedFormat:
		return FaultMode(s), true
	default:
		return "", false
	}
}

// State is the printer's shared runtime state.
type State struct {
	mu sync.RWMutex

	name                    string
	port                    int
	accepting               bool
	status                  Status
	stateReasons            []string
	advertised              bool
	faultMode               FaultMode
	jobIDCounter            uint32
	customPrinterAttributes goipp.Attributes // override group, nil when unset
}

// New creates printer state accepting jobs and idle by default.
func New(name string, port int) *State {
	return &State{
		name:         name,
		port:         port,
		accepting:    true,
		status:       StatusIdle,
		stateReasons: []string{"none"},
	}
}

func (s *State) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *State) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *State) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

func (s *State) Accepting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accepting
}

// SetAccepting toggles whether the printer accepts new jobs, updating the
// advertised state reason accordingly (none when accepting, paused otherwise).
func (s *State) SetAccepting(accepting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepting = accepting
	if accepting {
		s.stateReasons = []string{"none"}
	} else {
		s.stateReasons = []string{"paused"}
	}
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *State) StateReasons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reasons := make([]string, len(s.stateReasons))
	copy(reasons, s.stateReasons)
	return reasons
}

func (s *State) Advertised() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.advertised
}

func (s *State) SetAdvertised(advertised bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertised = advertised
}

func (s *State) FaultMode() FaultMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faultMode
}

func (s *State) SetFaultMode(mode FaultMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultMode = mode
}

// JobIDCounter returns the most recently allocated job id, as a read-only
// mirror of the Job Store's counter (the Store itself owns allocation so
// concurrent Print-Job requests never race on the same id).
func (s *State) JobIDCounter() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobIDCounter
}

func (s *State) SetJobIDCounter(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.jobIDCounter {
		s.jobIDCounter = id
	}
}

// CustomPrinterAttributes returns the configured Printer-Attributes
// override, and whether one is installed.
func (s *State) CustomPrinterAttributes() (goipp.Attributes, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customPrinterAttributes, s.customPrinterAttributes != nil
}

func (s *State) SetCustomPrinterAttributes(attrs goipp.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customPrinterAttributes = attrs
}
