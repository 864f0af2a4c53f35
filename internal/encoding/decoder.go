package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/aleksaelezovic/quadline/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term. Hashed kinds need
// the payload stored for them in id2str; inline kinds ignore it.
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, payload []byte) (rdf.Term, error) {
	kind := encoded.Kind()
	if !kind.Inline() && payload == nil {
		return nil, fmt.Errorf("payload required for term kind %d", kind)
	}

	switch kind {
	case KindNamedNode:
		return rdf.NewNamedNode(string(payload)), nil

	case KindBlankNode:
		return rdf.NewBlankNode(string(payload)), nil

	case KindInlineBlankNode:
		return rdf.NewBlankNode(strconv.FormatUint(binary.BigEndian.Uint64(encoded[1:9]), 10)), nil

	case KindString:
		return rdf.NewLiteral(string(payload)), nil

	case KindInlineString:
		data := encoded[1:]
		if end := bytes.IndexByte(data, 0); end != -1 {
			data = data[:end]
		}
		return rdf.NewLiteral(string(data)), nil

	case KindLangString:
		value, lang, err := splitPayload(payload)
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteralWithLanguage(value, lang), nil

	case KindTypedLiteral:
		value, datatype, err := splitPayload(payload)
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(datatype)), nil

	case KindInteger:
		return rdf.NewIntegerLiteral(int64(binary.BigEndian.Uint64(encoded[1:9]))), nil // #nosec G115 - bit-pattern conversion

	case KindBoolean:
		return rdf.NewBooleanLiteral(encoded[1] != 0), nil

	case KindDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, fmt.Errorf("unknown term kind: %d", kind)
	}
}

// splitPayload splits at the last separator; the value may itself contain one
func splitPayload(payload []byte) (string, string, error) {
	i := bytes.LastIndexByte(payload, payloadSep)
	if i == -1 {
		return "", "", fmt.Errorf("malformed literal payload %q", payload)
	}
	return string(payload[:i]), string(payload[i+1:]), nil
}
