// Package encoding turns RDF terms into fixed-size index keys.
//
// Every term becomes a kind byte followed by 16 bytes. Small values that fit
// are stored inline; everything else is a 128-bit xxh3 hash whose payload
// (the lexical form) is kept in the id2str table.
package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/quadline/pkg/rdf"
)

const (
	// Maximum size for inline strings
	MaxInlineStringSize = 16

	// Kind byte + 16 bytes of hash or inline data
	EncodedTermSize = 17
)

// Kind tags the layout of an EncodedTerm
type Kind byte

const (
	KindNamedNode Kind = iota + 1
	KindBlankNode
	KindInlineBlankNode
	KindString
	KindInlineString
	KindLangString
	KindTypedLiteral
	KindInteger
	KindBoolean
	KindDefaultGraph
)

// Inline reports whether terms of this kind decode without an id2str lookup
func (k Kind) Inline() bool {
	switch k {
	case KindInlineBlankNode, KindInlineString, KindInteger, KindBoolean, KindDefaultGraph:
		return true
	}
	return false
}

// payloadSep separates the value from its language tag or datatype IRI in
// literal payloads. Neither an IRI nor a language tag can contain it.
const payloadSep = 0

// EncodedTerm is a term encoded as a kind byte followed by 16 bytes of data
type EncodedTerm [EncodedTermSize]byte

func (e EncodedTerm) Kind() Kind {
	return Kind(e[0])
}

// Hash returns the 16 data bytes, used as the id2str key
func (e EncodedTerm) Hash() []byte {
	return e[1:]
}

// TermEncoder encodes terms; it is stateless and safe for concurrent use
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxh3 hash of s
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes term into a fixed-size key. The returned payload is
// what must be stored under the term's hash in id2str; it is nil for
// inline kinds.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, []byte, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(KindNamedNode, t.IRI), []byte(t.IRI), nil
	case *rdf.BlankNode:
		return e.encodeBlankNode(t)
	case *rdf.Literal:
		return e.encodeLiteral(t)
	case *rdf.DefaultGraph:
		var encoded EncodedTerm
		encoded[0] = byte(KindDefaultGraph)
		return encoded, nil, nil
	default:
		return EncodedTerm{}, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) hashed(kind Kind, payload string) EncodedTerm {
	var encoded EncodedTerm
	encoded[0] = byte(kind)
	hash := e.Hash128(payload)
	copy(encoded[1:], hash[:])
	return encoded
}

func (e *TermEncoder) encodeBlankNode(node *rdf.BlankNode) (EncodedTerm, []byte, error) {
	// Numeric identities round-trip exactly, so they are stored inline
	if num, err := strconv.ParseUint(node.ID, 10, 64); err == nil && strconv.FormatUint(num, 10) == node.ID {
		var encoded EncodedTerm
		encoded[0] = byte(KindInlineBlankNode)
		binary.BigEndian.PutUint64(encoded[1:9], num)
		return encoded, nil, nil
	}
	return e.hashed(KindBlankNode, node.ID), []byte(node.ID), nil
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, []byte, error) {
	if lit.Language != "" {
		payload := lit.Value + string(rune(payloadSep)) + lit.Language
		return e.hashed(KindLangString, payload), []byte(payload), nil
	}

	switch lit.DatatypeIRI() {
	case rdf.XSDString.IRI:
		return e.encodeString(lit.Value)

	case rdf.XSDInteger.IRI:
		// Only canonical lexical forms go inline; "007" keeps its spelling.
		if v, err := strconv.ParseInt(lit.Value, 10, 64); err == nil && strconv.FormatInt(v, 10) == lit.Value {
			var encoded EncodedTerm
			encoded[0] = byte(KindInteger)
			binary.BigEndian.PutUint64(encoded[1:9], uint64(v)) // #nosec G115 - bit-pattern conversion
			return encoded, nil, nil
		}

	case rdf.XSDBoolean.IRI:
		if lit.Value == "true" || lit.Value == "false" {
			var encoded EncodedTerm
			encoded[0] = byte(KindBoolean)
			if lit.Value == "true" {
				encoded[1] = 1
			}
			return encoded, nil, nil
		}
	}

	payload := lit.Value + string(rune(payloadSep)) + lit.DatatypeIRI()
	return e.hashed(KindTypedLiteral, payload), []byte(payload), nil
}

func (e *TermEncoder) encodeString(value string) (EncodedTerm, []byte, error) {
	// Inline strings are NUL-padded, so a value containing NUL can't go inline
	if len(value) <= MaxInlineStringSize && strings.IndexByte(value, 0) == -1 {
		var encoded EncodedTerm
		encoded[0] = byte(KindInlineString)
		copy(encoded[1:], value)
		return encoded, nil, nil
	}
	return e.hashed(KindString, value), []byte(value), nil
}

// EncodeKey concatenates encoded terms into an index key
func EncodeKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// SplitKey is the inverse of EncodeKey
func SplitKey(key []byte) ([]EncodedTerm, error) {
	if len(key)%EncodedTermSize != 0 {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}
	terms := make([]EncodedTerm, len(key)/EncodedTermSize)
	for i := range terms {
		copy(terms[i][:], key[i*EncodedTermSize:])
	}
	return terms, nil
}
