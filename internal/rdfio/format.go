// Package rdfio opens N-Quads and N-Triples input for the parser: local
// files, standard input or HTTP URLs, optionally compressed.
package rdfio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a line-based RDF serialization
type Format int

const (
	FormatUnknown Format = iota
	FormatNQuads
	FormatNTriples
)

func (f Format) String() string {
	switch f {
	case FormatNQuads:
		return "N-Quads"
	case FormatNTriples:
		return "N-Triples"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatNQuads:
		return "application/n-quads"
	case FormatNTriples:
		return "application/n-triples"
	default:
		return ""
	}
}

// FormatForContentType maps a MIME type to a format. Parameters such as
// charset are ignored.
func FormatForContentType(contentType string) (Format, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}

	switch ct {
	case "application/n-quads", "text/x-nquads":
		return FormatNQuads, nil
	case "application/n-triples", "text/plain":
		return FormatNTriples, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// FormatForPath guesses the format from a file name. Compression
// extensions are looked through, so "dump.nq.gz" is N-Quads.
func FormatForPath(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range []string{".gz", ".zst", ".bz2"} {
		name = strings.TrimSuffix(name, ext)
	}

	switch filepath.Ext(name) {
	case ".nq", ".nquads":
		return FormatNQuads
	case ".nt", ".ntriples":
		return FormatNTriples
	default:
		return FormatUnknown
	}
}

// SupportedContentTypes lists the MIME types accepted from HTTP sources
func SupportedContentTypes() []string {
	return []string{
		"application/n-quads",
		"text/x-nquads",
		"application/n-triples",
		"text/plain",
	}
}
