package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
)

const (
	dnssdServiceType = "_ipp._tcp"
	dnssdDomain      = "local."
)

// txtRecords builds the DNS-SD TXT record set this printer advertises,
// replacing the teacher's fixed AirPrint-oriented list (internal/airprint's
// txtrecords.go) with the table this system's external interface specifies.
// Key order is preserved for readability in packet captures; it has no
// protocol significance.
func txtRecords(printerName, host string, port int) []string {
	return []string{
		"txtvers=1",
		"rp=ipp/print",
		"ty=" + printerName,
		"pdl=application/pdf,image/urf,application/octet-stream",
		"URF=none",
		fmt.Sprintf("adminurl=http://%s:%d/", host, port),
		"priority=30",
		"qtotal=1",
		"kind=document",
		"TLS=1.2",
	}
}

// discovery wraps the running mDNS/DNS-SD advertisement, grounded on the
// teacher's pattern of a small wrapper type around *zeroconf.Server
// (rusq-thermoprint's ippsrv.mdnsSvc), generalized from a single hardcoded
// registration to this printer's configured name and port.
type discovery struct {
	srv *zeroconf.Server
}

// advertise registers the printer's DNS-SD service. host is the advertised
// hostname or IP, used only to build the adminurl TXT value.
func advertise(printerName, host string, port int) (*discovery, error) {
	srv, err := zeroconf.Register(
		printerName,
		dnssdServiceType,
		dnssdDomain,
		port,
		txtRecords(printerName, host, port),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("service: dns-sd registration: %w", err)
	}
	return &discovery{srv: srv}, nil
}

func (d *discovery) shutdown() {
	if d != nil && d.srv != nil {
		d.srv.Shutdown()
	}
}

// printerUUID derives a stable UUID for the printer from its name, the same
// pattern rusq-thermoprint's Printer.UUID uses (uuid.NewSHA1 against the
// zero-value namespace and the printer's name) so the value is
// deterministic across restarts rather than random each time.
func printerUUID(printerName string) uuid.UUID {
	return uuid.NewSHA1(uuid.UUID{}, []byte(printerName))
}
