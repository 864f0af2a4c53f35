package rdf

import (
	"fmt"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "NamedNode"
	case TermTypeBlankNode:
		return "BlankNode"
	case TermTypeLiteral:
		return "Literal"
	case TermTypeDefaultGraph:
		return "DefaultGraph"
	default:
		return fmt.Sprintf("TermType(%d)", byte(t))
	}
}

// Term represents an RDF term (IRI, blank node, literal or the default graph)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

// String writes the IRI verbatim. The line reader decodes no escapes inside
// IRIs, so an IRI containing '>', '"' or a line break has no N-Quads form
// that reads back unchanged.
func (n *NamedNode) String() string {
	return "<" + n.IRI + ">"
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node. ID is its identity, not the label it
// had in the source document.
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return "_:" + b.ID
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal. Datatype is always set by the
// constructors below; a nil Datatype is treated as xsd:string.
type Literal struct {
	Value    string
	Language string
	Datatype *NamedNode
}

// NewLiteral creates an xsd:string literal
func NewLiteral(value string) *Literal {
	return &Literal{Value: value, Datatype: XSDString}
}

// NewLiteralWithLanguage creates an rdf:langString literal
func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language, Datatype: RDFLangString}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	if datatype == nil {
		datatype = XSDString
	}
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

// DatatypeIRI returns the datatype IRI, defaulting to xsd:string
func (l *Literal) DatatypeIRI() string {
	if l.Datatype == nil {
		return XSDString.IRI
	}
	return l.Datatype.IRI
}

func (l *Literal) String() string {
	result := `"` + escapeString(l.Value) + `"`
	if l.Language != "" {
		return result + "@" + l.Language
	}
	if dt := l.DatatypeIRI(); dt != XSDString.IRI {
		result += "^^<" + dt + ">"
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	return l.Value == ol.Value &&
		l.Language == ol.Language &&
		l.DatatypeIRI() == ol.DatatypeIRI()
}

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() *DefaultGraph {
	return &DefaultGraph{}
}

func (d *DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d *DefaultGraph) String() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Equals(other Term) bool {
	_, ok := other.(*DefaultGraph)
	return ok
}

// Quad represents an RDF quad (subject, predicate, object, graph)
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) *Quad {
	if graph == nil {
		graph = NewDefaultGraph()
	}
	return &Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

// InDefaultGraph reports whether the quad belongs to the default graph
func (q *Quad) InDefaultGraph() bool {
	return q.Graph == nil || q.Graph.Type() == TermTypeDefaultGraph
}

// Equals compares all four positions
func (q *Quad) Equals(other *Quad) bool {
	if other == nil {
		return false
	}
	if !q.Subject.Equals(other.Subject) || !q.Predicate.Equals(other.Predicate) || !q.Object.Equals(other.Object) {
		return false
	}
	if q.InDefaultGraph() || other.InDefaultGraph() {
		return q.InDefaultGraph() == other.InDefaultGraph()
	}
	return q.Graph.Equals(other.Graph)
}

// String formats the quad as one N-Quads statement without a trailing newline
func (q *Quad) String() string {
	if q.InDefaultGraph() {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

var (
	XSDString     = NewNamedNode(XSDNamespace + "string")
	XSDBoolean    = NewNamedNode(XSDNamespace + "boolean")
	XSDInteger    = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal    = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble     = NewNamedNode(XSDNamespace + "double")
	XSDDateTime   = NewNamedNode(XSDNamespace + "dateTime")
	RDFLangString = NewNamedNode(RDFNamespace + "langString")
)

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%t", value), XSDBoolean)
}

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%d", value), XSDInteger)
}
