package nquads

import (
	"errors"
	"fmt"
)

var (
	ErrMissingClosingAngleBracket = errors.New("named node without closing angle bracket")
	ErrUnexpectedCharacter        = errors.New("unexpected character")
	ErrUnterminatedLiteral        = errors.New("literal without closing quote")
	ErrInvalidEscape              = errors.New("invalid escape sequence")

	// ErrNoStore is returned by LoadBuf when the parser has no store
	ErrNoStore = errors.New("nquads: no store configured")
)

// ErrorKind classifies a ParseError
type ErrorKind byte

const (
	MissingClosingAngleBracket ErrorKind = iota + 1
	UnexpectedCharacter
	UnterminatedLiteral
	InvalidEscape
)

func (k ErrorKind) String() string {
	switch k {
	case MissingClosingAngleBracket:
		return "MissingClosingAngleBracket"
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnterminatedLiteral:
		return "UnterminatedLiteral"
	case InvalidEscape:
		return "InvalidEscape"
	default:
		return fmt.Sprintf("ErrorKind(%d)", byte(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case MissingClosingAngleBracket:
		return ErrMissingClosingAngleBracket
	case UnexpectedCharacter:
		return ErrUnexpectedCharacter
	case UnterminatedLiteral:
		return ErrUnterminatedLiteral
	case InvalidEscape:
		return ErrInvalidEscape
	default:
		return nil
	}
}

// ParseError describes why a single line could not be decoded.
type ParseError struct {
	Kind ErrorKind

	// Char is the observed character for UnexpectedCharacter; zero when the
	// statement ended where a term was expected.
	Char rune

	// Escape is the offending sequence for InvalidEscape
	Escape string

	// Pos is the byte offset within the trimmed line
	Pos int

	// Line is the raw, untrimmed input line and LineNo its 1-based number
	Line   string
	LineNo int
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case UnexpectedCharacter:
		if e.Char == 0 {
			msg = "unexpected end of statement"
		} else {
			msg = fmt.Sprintf("unexpected character '%c'", e.Char)
		}
	case InvalidEscape:
		msg = fmt.Sprintf("invalid escape sequence %q", e.Escape)
	default:
		msg = e.Kind.sentinel().Error()
	}
	if e.LineNo > 0 {
		return fmt.Sprintf("line %d: %s", e.LineNo, msg)
	}
	return msg
}

// Unwrap allows errors.Is against the Err* sentinels
func (e *ParseError) Unwrap() error {
	return e.Kind.sentinel()
}

func missingClosingAngleBracket(pos int) *ParseError {
	return &ParseError{Kind: MissingClosingAngleBracket, Pos: pos}
}

func unexpectedCharacter(ch rune, pos int) *ParseError {
	return &ParseError{Kind: UnexpectedCharacter, Char: ch, Pos: pos}
}
