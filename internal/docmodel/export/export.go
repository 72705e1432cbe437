// Package export renders documents into downloadable formats.
package export

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"scibind/internal/docmodel"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

var formatAliases = map[string]Format{
	"htm": FormatHTML,
	"md":  FormatMarkdown,
	"txt": FormatText,
}

// ParseFormat normalizes a user-supplied format name. Unknown names are
// returned as-is and rejected later by the registry.
func ParseFormat(name string) Format {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if f, ok := formatAliases[name]; ok {
		return f
	}
	return Format(name)
}

// Exporter renders a whole document. Implementations only read the document,
// so callers holding its read lock may export concurrently.
type Exporter interface {
	Format() Format
	ContentType() string
	Extension() string
	Export(doc *docmodel.Document) ([]byte, error)
}

// Registry routes export requests to the exporter registered for a format.
type Registry struct {
	mu        sync.RWMutex
	exporters map[Format]Exporter
}

// NewRegistry returns a registry with every built-in exporter registered.
func NewRegistry() *Registry {
	r := &Registry{exporters: make(map[Format]Exporter)}
	html := NewHTMLExporter()
	r.Register(html)
	r.Register(NewMarkdownExporter(html))
	r.Register(NewTextExporter())
	r.Register(NewPDFExporter())
	return r
}

func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[e.Format()] = e
}

func (r *Registry) Get(format Format) (Exporter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exporters[format]
	return e, ok
}

// Export renders doc with the exporter for format.
func (r *Registry) Export(format Format, doc *docmodel.Document) ([]byte, Exporter, error) {
	e, ok := r.Get(format)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	out, err := e.Export(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("export %s: %w", format, err)
	}
	return out, e, nil
}

// Formats lists the registered formats in name order.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]Format, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

func equationLiteral(e *docmodel.Equation) string {
	if e.Inline {
		return `\(` + e.Content + `\)`
	}
	return `\[` + e.Content + `\]`
}
