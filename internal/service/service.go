// Package service owns the Service Manager: the TCP listener, the HTTP
// routes, the DNS-SD advertisement, and the lifecycle FSM that ties them to
// the IPP Operation Handler and Job Store.
//
// Grounded on the teacher's daemon.Daemon (internal/daemon/daemon.go),
// generalized from "poll CUPS on a ticker and refresh Avahi service files"
// to "serve IPP requests directly, advertise once via mDNS, and tear down
// cleanly on signal or context cancel" — and on rusq-thermoprint's
// ippsrv.Server (http.go) for the ListenAndServe/Shutdown shape.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/rs/zerolog"

	"github.com/ipp-printer-sim/ipp-printer-sim/internal/handler"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/jobstore"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/media"
	"github.com/ipp-printer-sim/ipp-printer-sim/internal/printerstate"
)

// shutdownGrace bounds how long Shutdown waits for in-flight handlers to
// drain after the listener is closed.
const shutdownGrace = 2 * time.Second

const ippContentType = "application/ipp"

// Service is the Service Manager: it owns the listener handle and the
// PrinterState exclusively, and holds shared references to the Handler and
// Job Store. Construct one with New per process; a process may hold zero
// or more.
type Service struct {
	cfg   Config
	state *printerstate.State
	store *jobstore.Store
	hndl  *handler.Handler
	media *media.Registry
	log   zerolog.Logger

	lifecycle *fsmWrapper

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	disc     *discovery
}

// New builds a Service from cfg. The Job Store directory is created (if
// missing) here; nothing is listened on or advertised until Start.
func New(cfg Config, log zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	state := printerstate.New(cfg.PrinterName, cfg.Port)
	faultMode, _ := printerstate.ParseFaultMode(cfg.FaultInjection)
	state.SetFaultMode(faultMode)

	if len(cfg.CustomPrinterAttributes) > 0 {
		attrs, err := buildCustomAttributes(cfg.CustomPrinterAttributes)
		if err != nil {
			return nil, fmt.Errorf("service: custom_printer_attributes: %w", err)
		}
		state.SetCustomPrinterAttributes(attrs)
	}

	svcLog := log.With().Str("component", "service").Logger()

	store, err := jobstore.New(cfg.JobDir, svcLog)
	if err != nil {
		return nil, err
	}

	reg := media.NewRegistry()
	host := fmt.Sprintf("%s:%d", localIP(), cfg.Port)
	h := handler.New(state, store, reg, host, printerUUID(cfg.PrinterName), svcLog)

	s := &Service{
		cfg:   cfg,
		state: state,
		store: store,
		hndl:  h,
		media: reg,
		log:   svcLog,
	}
	s.lifecycle = newFSMWrapper(svcLog)
	return s, nil
}

// State returns the printer's shared runtime state, for callers (tests, an
// admin surface) that need to read or mutate accepting/fault-mode/custom
// attributes outside request handling.
func (s *Service) State() *printerstate.State { return s.state }

// Store returns the Job Store, for callers that want to subscribe to
// JobCreated events or enumerate persisted jobs.
func (s *Service) Store() *jobstore.Store { return s.store }

// Start binds the listener, begins serving HTTP, and (unless disabled)
// registers the DNS-SD advertisement. On any failure the listener is torn
// down and the lifecycle falls back to Stopped.
func (s *Service) Start(ctx context.Context) error {
	if err := s.lifecycle.fire(evtStart); err != nil {
		return fmt.Errorf("service: start: %w", err)
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		s.lifecycle.fire(evtDNSFail) //nolint:errcheck // best-effort state reset
		return fmt.Errorf("service: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleIPP)
	mux.HandleFunc("GET /", s.handleRoot)

	httpSrv := &http.Server{Handler: mux}

	s.mu.Lock()
	s.listener = lis
	s.httpSrv = httpSrv
	s.mu.Unlock()

	go func() {
		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	if s.cfg.Advertise {
		disc, err := advertise(s.state.Name(), localIP(), s.cfg.Port)
		if err != nil {
			s.log.Error().Err(err).Msg("dns-sd registration failed")
			s.mu.Lock()
			s.httpSrv = nil
			s.listener = nil
			s.mu.Unlock()
			httpSrv.Close()
			lis.Close()
			s.lifecycle.fire(evtDNSFail) //nolint:errcheck
			return fmt.Errorf("service: %w", err)
		}
		s.mu.Lock()
		s.disc = disc
		s.mu.Unlock()
		s.state.SetAdvertised(true)
	}

	if err := s.lifecycle.fire(evtReady); err != nil {
		return fmt.Errorf("service: start: %w", err)
	}

	s.log.Info().
		Int("port", s.cfg.Port).
		Bool("advertised", s.state.Advertised()).
		Str("printer_name", s.state.Name()).
		Msg("service started")
	return nil
}

// Shutdown deregisters DNS-SD first, then closes the listener, then waits
// up to the configured grace period for in-flight handlers to drain.
func (s *Service) Shutdown(ctx context.Context) error {
	if err := s.lifecycle.fire(evtStop); err != nil {
		return fmt.Errorf("service: shutdown: %w", err)
	}

	s.mu.Lock()
	disc := s.disc
	httpSrv := s.httpSrv
	s.disc = nil
	s.mu.Unlock()

	disc.shutdown()
	s.state.SetAdvertised(false)

	var shutdownErr error
	if httpSrv != nil {
		sctx, cancel := context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
		shutdownErr = httpSrv.Shutdown(sctx)
	}

	s.mu.Lock()
	s.httpSrv = nil
	s.listener = nil
	s.mu.Unlock()

	s.lifecycle.fire(evtStopped) //nolint:errcheck // terminal transition
	s.log.Info().Msg("service stopped")
	return shutdownErr
}

func (s *Service) handleIPP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("reading request body failed")
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}

	resp, err := s.hndl.Handle(body)
	if err != nil {
		s.log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("handling ipp request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ippContentType)
	if _, err := w.Write(resp); err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("writing response failed")
	}
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s.state.Name())
}

// buildCustomAttributes converts the configured override into the
// goipp.Attributes group Get-Printer-Attributes returns verbatim when set.
func buildCustomAttributes(cfgAttrs []CustomAttribute) (goipp.Attributes, error) {
	var attrs goipp.Attributes
	for _, ca := range cfgAttrs {
		tag, ok := tagByKeyword[ca.Tag]
		if !ok {
			return nil, fmt.Errorf("unknown attribute tag %q for %q", ca.Tag, ca.Name)
		}
		attr := goipp.Attribute{Name: ca.Name}
		for _, v := range ca.Values {
			val, err := valueForTag(tag, v)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", ca.Name, err)
			}
			attr.AddValue(tag, val)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// localIP returns the first non-loopback IPv4 address, the same best-effort
// approach the teacher's daemon.getLocalIP used, for building the
// printer-uri-supported and adminurl values a deployment's network actually
// reaches.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if v4 := ipnet.IP.To4(); v4 != nil {
				return v4.String()
			}
		}
	}
	return "127.0.0.1"
}
