package service

import (
	"fmt"

	"github.com/ipp-printer-sim/ipp-printer-sim/internal/printerstate"
)

// Config holds the Service Manager's configuration, adapted from the
// teacher's daemon.Config: the fields that named CUPS and Avahi specifics
// are gone, replaced by the printer-level knobs this system's spec defines.
type Config struct {
	PrinterName             string
	Port                    int
	JobDir                  string
	FaultInjection          string
	CustomPrinterAttributes []CustomAttribute
	Advertise               bool
}

// CustomAttribute is one attribute of a configured Printer-Attributes
// override; Tag names a goipp value tag by its RFC 8010 keyword
// (e.g. "keyword", "integer", "boolean", "uri").
type CustomAttribute struct {
	Name   string
	Tag    string
	Values []string
}

// DefaultConfig returns the printer's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		PrinterName:    "IPP Printer Simulator",
		Port:           8631,
		JobDir:         "jobs",
		FaultInjection: string(printerstate.FaultOff),
		Advertise:      true,
	}
}

// Validate checks the configured port falls within the non-privileged
// range.
func (c Config) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("service: port %d out of range 1024-65535", c.Port)
	}
	if _, ok := printerstate.ParseFaultMode(c.FaultInjection); !ok {
		return fmt.Errorf("service: invalid fault_injection mode %q", c.FaultInjection)
	}
	return nil
}
