package nquads

import (
	"strings"
	"unicode/utf8"
)

// scanner is a cursor over one trimmed statement. All offsets are absolute
// byte offsets into line; searches return -1 when nothing is found.
type scanner struct {
	line string
	pos  int
}

func newScanner(line string) *scanner {
	return &scanner{line: line}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.line)
}

// peek returns the byte at the cursor, or 0 at end of line
func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.line[s.pos]
}

// peekRune returns the full character at i, for error reporting
func (s *scanner) peekRune(i int) rune {
	if i >= len(s.line) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.line[i:])
	return r
}

func (s *scanner) hasPrefixAt(i int, token string) bool {
	return i <= len(s.line) && strings.HasPrefix(s.line[i:], token)
}

// indexFrom finds token at or after from
func (s *scanner) indexFrom(from int, token string) int {
	if from > len(s.line) {
		return -1
	}
	idx := strings.Index(s.line[from:], token)
	if idx == -1 {
		return -1
	}
	return from + idx
}

// indexAnyFrom finds the first of chars at or after from
func (s *scanner) indexAnyFrom(from int, chars string) int {
	if from > len(s.line) {
		return -1
	}
	idx := strings.IndexAny(s.line[from:], chars)
	if idx == -1 {
		return -1
	}
	return from + idx
}

func (s *scanner) lastIndex(token string) int {
	return strings.LastIndex(s.line, token)
}

func (s *scanner) slice(from, to int) string {
	return s.line[from:to]
}

func (s *scanner) advance(to int) {
	if to > len(s.line) {
		to = len(s.line)
	}
	s.pos = to
}

// unexpected builds an UnexpectedCharacter error for the cursor position
func (s *scanner) unexpected() *ParseError {
	return unexpectedCharacter(s.peekRune(s.pos), s.pos)
}
