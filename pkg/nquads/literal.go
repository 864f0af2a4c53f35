package nquads

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aleksaelezovic/quadline/pkg/rdf"
)

const (
	ltOpeningToken = '"'
	dtSplitPrefix  = `"^^<`
	lgOpeningToken = '@'
)

// literal decodes the literal whose opening quote is at the cursor. The
// lexical value runs to the last quote on the line.
func (d *lineDecoder) literal() (rdf.Term, *ParseError) {
	sc := d.sc
	start := sc.pos + 1
	end := sc.lastIndex(string(ltOpeningToken))
	if end < start {
		return nil, &ParseError{Kind: UnterminatedLiteral, Pos: sc.pos}
	}

	value, err := unescapeLiteral(sc.slice(start, end))
	if err != nil {
		err.Pos += start
		return nil, err
	}

	switch {
	case sc.hasPrefixAt(end, dtSplitPrefix):
		dtStart := end + len(dtSplitPrefix)
		rightBoundary := sc.indexFrom(dtStart, ">")
		if rightBoundary == -1 {
			return nil, missingClosingAngleBracket(dtStart)
		}
		datatype := d.factory.NamedNode(sc.slice(dtStart, rightBoundary))
		sc.advance(rightBoundary + 1)
		return d.factory.Literal(canonicalValue(value, datatype), datatype, ""), nil

	case end+1 < len(sc.line) && sc.line[end+1] == lgOpeningToken:
		langStart := end + 2
		langEnd := sc.indexAnyFrom(langStart, " \t.<")
		if langEnd == -1 {
			langEnd = len(sc.line)
		}
		if langEnd == langStart {
			return nil, unexpectedCharacter(sc.peekRune(langStart), langStart)
		}
		sc.advance(langEnd)
		return d.factory.Literal(value, rdf.RDFLangString, sc.slice(langStart, langEnd)), nil

	default:
		sc.advance(end + 1)
		return d.factory.Literal(value, rdf.XSDString, ""), nil
	}
}

// canonicalValue maps the numeric xsd:boolean forms onto true/false
func canonicalValue(value string, datatype *rdf.NamedNode) string {
	if datatype.IRI != rdf.XSDBoolean.IRI {
		return value
	}
	switch value {
	case "1":
		return "true"
	case "0":
		return "false"
	}
	return value
}

// unescapeLiteral resolves backslash escapes. The escape pair \r\n collapses
// into a single line feed; a lone \r stays a carriage return.
func unescapeLiteral(raw string) (string, *ParseError) {
	if strings.IndexByte(raw, '\\') == -1 {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(raw) {
			return "", invalidEscape(raw[i:], i)
		}

		switch esc := raw[i+1]; esc {
		case 'r':
			if strings.HasPrefix(raw[i+2:], `\n`) {
				b.WriteByte('\n')
				i += 3
				continue
			}
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(esc)
		case 'u', 'U':
			size := 4
			if esc == 'U' {
				size = 8
			}
			if i+2+size > len(raw) {
				return "", invalidEscape(raw[i:], i)
			}
			hex := raw[i+2 : i+2+size]
			code, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", invalidEscape(raw[i:i+2+size], i)
			}
			b.WriteRune(rune(code))
			i += size
		default:
			return "", invalidEscape(raw[i:i+2], i)
		}
		i++
	}

	return b.String(), nil
}

func invalidEscape(seq string, pos int) *ParseError {
	return &ParseError{Kind: InvalidEscape, Escape: seq, Pos: pos}
}
