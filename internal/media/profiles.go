// Package media holds the printer's supported media catalog: the
// media-supported and media-default attribute values reported by
// Get-Printer-Attributes.
//
// Adapted from the teacher's media.Registry, which matched per-brand label
// profiles (Zebra, DYMO, Brother QL, Rollo) against a printer's
// make-and-model string. This printer is a generic document printer rather
// than a label printer, so the per-brand matching is gone; what's kept is
// the registry shape and the idea of a configurable default.
package media

// Size pairs an IPP media size keyword with a human-readable description.
type Size struct {
	Name        string
	Description string
}

// catalog is the generic media sizes this printer supports.
var catalog = []Size{
	{"iso_a4_210x297mm", "A4"},
	{"iso_a5_148x210mm", "A5"},
	{"na_letter_8.5x11in", "US Letter"},
	{"na_legal_8.5x14in", "US Legal"},
}

const defaultMedia = "iso_a4_210x297mm"

// Registry exposes the supported catalog and the configured default,
// which a deployment may override.
type Registry struct {
	sizes []Size
	deflt string
}

// NewRegistry creates a registry over the generic catalog.
func NewRegistry() *Registry {
	return &Registry{sizes: catalog, deflt: defaultMedia}
}

// Names returns the IPP media-supported keyword list.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sizes))
	for i, s := range r.sizes {
		names[i] = s.Name
	}
	return names
}

// Default returns the media-default keyword.
func (r *Registry) Default() string {
	return r.deflt
}

// SetDefault overrides the default media size, validating it is one of the
// supported names.
func (r *Registry) SetDefault(name string) bool {
	for _, s := range r.sizes {
		if s.Name == name {
			r.deflt = name
			return true
		}
	}
	return false
}
