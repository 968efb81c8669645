package service

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// Service states and transition events, mirroring the state machine this
// printer's Service Manager must implement:
//
//	[Stopped] --start--> [Starting] --listener_ok+dns_ok--> [Running]
//	[Running] --dns_fail--> [Stopped]
//	[Running] --stop--> [Stopping] --> [Stopped]
//
// Repurposed from the teacher's per-job FSM (rusq-thermoprint's
// ippsrv.makeJobFSM), which drove a Job through pending/processing/
// completed states with looplab/fsm; here the same library drives the
// Service's own start/stop lifecycle instead of a job's.
const (
	StateStopped  = "stopped"
	StateStarting = "starting"
	StateRunning  = "running"
	StateStopping = "stopping"
)

const (
	evtStart   = "start"
	evtReady   = "ready"
	evtDNSFail = "dns_fail"
	evtStop    = "stop"
	evtStopped = "stopped"
)

// newLifecycle builds the Service Manager's FSM.
func newLifecycle(log zerolog.Logger) *fsm.FSM {
	return fsm.NewFSM(
		StateStopped,
		[]fsm.EventDesc{
			{Name: evtStart, Src: []string{StateStopped}, Dst: StateStarting},
			{Name: evtReady, Src: []string{StateStarting}, Dst: StateRunning},
			{Name: evtDNSFail, Src: []string{StateRunning, StateStarting}, Dst: StateStopped},
			{Name: evtStop, Src: []string{StateRunning, StateStarting}, Dst: StateStopping},
			{Name: evtStopped, Src: []string{StateStopping}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Info().Str("event", e.Event).Str("state", e.Dst).Msg("service lifecycle transition")
			},
		},
	)
}

// fsmWrapper serializes Service start/stop/advertise transitions on a
// single FSM instance, so lifecycle and DNS-SD registration callbacks run
// on a dedicated control path rather than racing across concurrent
// request-handling goroutines.
type fsmWrapper struct {
	mu  sync.Mutex
	sm  *fsm.FSM
	ctx context.Context
}

func newFSMWrapper(log zerolog.Logger) *fsmWrapper {
	return &fsmWrapper{sm: newLifecycle(log), ctx: context.Background()}
}

// fire drives the named event, serialized under the wrapper's own mutex so
// Start/Shutdown racing from different goroutines can't interleave.
func (w *fsmWrapper) fire(event string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sm.Event(w.ctx, event)
}

// current returns the FSM's current state, e.g. for a diagnostics endpoint.
func (w *fsmWrapper) current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sm.Current()
}
