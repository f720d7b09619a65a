// Package source loads a Rendición de Cuentas document into plain text.
// The actual rendering libraries (PDF, XLSX) are treated as opaque text
// providers; everything downstream only sees pages of text.
package source

import "strings"

// Document identifies one ingestion run: the municipality metadata supplied
// by the caller plus the raw text of the report, split into pages. It is
// immutable once loaded and lives for a single process invocation.
type Document struct {
	Municipio string
	Nombre    string
	Tipo      string
	Periodo   string
	Path      string
	Pages     []string
}

// FullText joins every page. Used as the degraded fallback when the section
// router cannot locate a confident match.
func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\n\n")
}

// Empty reports whether no page carries any text at all.
func (d *Document) Empty() bool {
	for _, page := range d.Pages {
		if strings.TrimSpace(page) != "" {
			return false
		}
	}
	return true
}
