package rdf

import (
	"strings"

	"github.com/google/uuid"
)

// Factory constructs RDF terms. Implementations must not have side effects
// beyond allocating identities for fresh blank nodes.
type Factory interface {
	// NamedNode returns a term for the given IRI
	NamedNode(iri string) *NamedNode

	// BlankNode returns a blank node for label. An empty label allocates a
	// fresh identity on every call.
	BlankNode(label string) *BlankNode

	// Literal returns a literal. When language is non-empty the datatype is
	// rdf:langString regardless of the datatype argument.
	Literal(value string, datatype *NamedNode, language string) *Literal

	// DefaultGraph returns the default graph sentinel
	DefaultGraph() *DefaultGraph
}

// DataFactory is the default Factory. Fresh blank nodes get a random UUID
// based identity, so one DataFactory can be shared between goroutines.
type DataFactory struct {
	defaultGraph *DefaultGraph
}

// NewDataFactory creates a new DataFactory
func NewDataFactory() *DataFactory {
	return &DataFactory{defaultGraph: NewDefaultGraph()}
}

func (f *DataFactory) NamedNode(iri string) *NamedNode {
	return NewNamedNode(iri)
}

func (f *DataFactory) BlankNode(label string) *BlankNode {
	if label == "" {
		return NewBlankNode("b" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return NewBlankNode(label)
}

func (f *DataFactory) Literal(value string, datatype *NamedNode, language string) *Literal {
	if language != "" {
		return NewLiteralWithLanguage(value, language)
	}
	return NewLiteralWithDatatype(value, datatype)
}

func (f *DataFactory) DefaultGraph() *DefaultGraph {
	return f.defaultGraph
}
