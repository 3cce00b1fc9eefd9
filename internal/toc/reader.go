package toc

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/salmonumbrella/bookmarks-cli/internal/outline"
)

const (
	// DefaultBackend is used when no backend is configured.
	DefaultBackend = "pdfcpu"
	// MuPDFBackend is only compiled in with the mupdf build tag (cgo).
	MuPDFBackend = "mupdf"
)

// Reader is a PDF table-of-contents reader. Implementations return the
// outline as a flat, pre-order list of records.
type Reader interface {
	// Name returns the backend identifier used with --backend.
	Name() string

	// ReadFile opens the PDF at path and returns its table of contents.
	ReadFile(ctx context.Context, path string) ([]outline.Record, error)

	// ReadBytes parses an in-memory PDF and returns its table of contents.
	ReadBytes(ctx context.Context, data []byte) ([]outline.Record, error)
}

// Registry holds the readers available to the driver.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates a registry with the given readers.
func NewRegistry(readers ...Reader) *Registry {
	r := &Registry{readers: make(map[string]Reader)}
	for _, reader := range readers {
		r.Register(reader)
	}
	return r
}

// Register adds a reader, replacing any reader with the same name.
func (r *Registry) Register(reader Reader) {
	if reader == nil {
		return
	}
	r.readers[strings.ToLower(reader.Name())] = reader
}

// Lookup returns the named reader, or a CapabilityError when it is not
// available in this build.
func (r *Registry) Lookup(name string) (Reader, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultBackend
	}
	if r != nil {
		if reader, ok := r.readers[key]; ok {
			return reader, nil
		}
	}

	msg := fmt.Sprintf("PDF reader %q is not available", key)
	if available := r.Names(); len(available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(available, ", "))
	}
	if key == MuPDFBackend {
		msg += "; rebuild with -tags mupdf to enable it"
	}
	return nil, CapabilityError{Message: msg, Backend: key}
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.readers))
	for name := range r.readers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with every reader compiled into this
// binary.
func DefaultRegistry() *Registry {
	r := NewRegistry(NewPDFCPUReader())
	registerOptional(r)
	return r
}
