package rdf

import (
	"fmt"
	"io"
	"strings"
)

// SerializeQuads serializes quads to N-Quads, one statement per line.
// Quads in the default graph are written as triples. Input order is preserved.
func SerializeQuads(quads []*Quad) string {
	if len(quads) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, quad := range quads {
		builder.WriteString(quad.String())
		builder.WriteByte('\n')
	}
	return builder.String()
}

// WriteQuads writes quads to w in N-Quads format
func WriteQuads(w io.Writer, quads []*Quad) error {
	for _, quad := range quads {
		if _, err := io.WriteString(w, quad.String()+"\n"); err != nil {
			return fmt.Errorf("failed to write quad: %w", err)
		}
	}
	return nil
}

// escapeString escapes a literal value so that it survives a round trip
// through a line-oriented reader: no raw line breaks are ever emitted. A
// carriage return directly followed by a line feed is written as \u000D,
// since the escape pair \r\n reads back as a single line feed.
func escapeString(s string) string {
	if !strings.ContainsAny(s, "\t\b\n\r\f\"\\") && !hasControl(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s) + 8)

	for i, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				builder.WriteString(`\u000D`)
			} else {
				builder.WriteString(`\r`)
			}
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7F {
			return true
		}
	}
	return false
}
