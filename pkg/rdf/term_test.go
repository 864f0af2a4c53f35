package rdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedNode(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")

	assert.Equal(t, TermTypeNamedNode, node.Type())
	assert.Equal(t, "<http://example.org/resource>", node.String())
	assert.True(t, node.Equals(NewNamedNode("http://example.org/resource")))
	assert.False(t, node.Equals(NewNamedNode("http://example.org/different")))
	assert.False(t, node.Equals(NewLiteral("http://example.org/resource")))
}

func TestBlankNode(t *testing.T) {
	node := NewBlankNode("b1")

	assert.Equal(t, TermTypeBlankNode, node.Type())
	assert.Equal(t, "_:b1", node.String())
	assert.True(t, node.Equals(NewBlankNode("b1")))
	assert.False(t, node.Equals(NewBlankNode("b2")))
	assert.False(t, node.Equals(NewNamedNode("b1")))
}

func TestLiteral_Datatypes(t *testing.T) {
	plain := NewLiteral("hello")
	assert.Equal(t, XSDString.IRI, plain.DatatypeIRI())
	assert.Equal(t, `"hello"`, plain.String())

	tagged := NewLiteralWithLanguage("hallo", "nl")
	assert.Equal(t, RDFLangString.IRI, tagged.DatatypeIRI())
	assert.Equal(t, `"hallo"@nl`, tagged.String())

	typed := NewLiteralWithDatatype("42", XSDInteger)
	assert.Equal(t, `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, typed.String())

	untyped := NewLiteralWithDatatype("x", nil)
	assert.Equal(t, XSDString.IRI, untyped.DatatypeIRI())
}

func TestLiteral_Equals(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *Literal
		equal bool
	}{
		{"same string", NewLiteral("a"), NewLiteral("a"), true},
		{"nil datatype is xsd:string", &Literal{Value: "a"}, NewLiteral("a"), true},
		{"different value", NewLiteral("a"), NewLiteral("b"), false},
		{"different language", NewLiteralWithLanguage("a", "en"), NewLiteralWithLanguage("a", "nl"), false},
		{"string vs langString", NewLiteral("a"), NewLiteralWithLanguage("a", "en"), false},
		{"different datatype", NewLiteralWithDatatype("1", XSDInteger), NewLiteralWithDatatype("1", XSDDecimal), false},
		{"boolean", NewBooleanLiteral(true), NewLiteralWithDatatype("true", XSDBoolean), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equals(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equals(tt.a))
		})
	}
}

func TestLiteral_StringEscapes(t *testing.T) {
	lit := NewLiteral("line1\nline2\r\"quoted\"\\\t")
	assert.Equal(t, `"line1\nline2\r\"quoted\"\\\t"`, lit.String())

	ctrl := NewLiteral("a\x01b")
	assert.Equal(t, `"a\u0001b"`, ctrl.String())
}

func TestDefaultGraph(t *testing.T) {
	g := NewDefaultGraph()
	assert.Equal(t, TermTypeDefaultGraph, g.Type())
	assert.True(t, g.Equals(NewDefaultGraph()))
	assert.False(t, g.Equals(NewNamedNode("DEFAULT")))
}

func TestQuad(t *testing.T) {
	s := NewNamedNode("http://example.org/s")
	p := NewNamedNode("http://example.org/p")
	o := NewLiteral("o")
	g := NewNamedNode("http://example.org/g")

	triple := NewQuad(s, p, o, nil)
	require.True(t, triple.InDefaultGraph())
	assert.Equal(t, `<http://example.org/s> <http://example.org/p> "o" .`, triple.String())

	quad := NewQuad(s, p, o, g)
	assert.False(t, quad.InDefaultGraph())
	assert.Equal(t, `<http://example.org/s> <http://example.org/p> "o" <http://example.org/g> .`, quad.String())

	assert.True(t, quad.Equals(NewQuad(s, p, NewLiteral("o"), NewNamedNode("http://example.org/g"))))
	assert.False(t, quad.Equals(triple))
	assert.True(t, triple.Equals(NewQuad(s, p, o, NewDefaultGraph())))
	assert.False(t, quad.Equals(nil))
}

func TestDataFactory(t *testing.T) {
	f := NewDataFactory()

	assert.Equal(t, "http://example.org/", f.NamedNode("http://example.org/").IRI)

	b1 := f.BlankNode("")
	b2 := f.BlankNode("")
	assert.NotEmpty(t, b1.ID)
	assert.False(t, b1.Equals(b2), "fresh blank nodes must have distinct identities")
	assert.True(t, f.BlankNode("x").Equals(f.BlankNode("x")))

	lit := f.Literal("hallo", XSDString, "nl")
	assert.Equal(t, "nl", lit.Language)
	assert.Equal(t, RDFLangString.IRI, lit.DatatypeIRI())

	typed := f.Literal("true", XSDBoolean, "")
	assert.Equal(t, XSDBoolean.IRI, typed.DatatypeIRI())

	assert.Same(t, f.DefaultGraph(), f.DefaultGraph())
}

func TestSerializeQuads(t *testing.T) {
	assert.Equal(t, "", SerializeQuads(nil))

	quads := []*Quad{
		NewQuad(NewBlankNode("a"), NewNamedNode("http://example.org/p"), NewLiteralWithLanguage("x", "en"), nil),
		NewQuad(NewNamedNode("http://example.org/s"), NewNamedNode("http://example.org/p"),
			NewNamedNode("http://example.org/o"), NewNamedNode("http://example.org/g")),
	}
	want := "_:a <http://example.org/p> \"x\"@en .\n" +
		"<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .\n"
	assert.Equal(t, want, SerializeQuads(quads))

	var buf bytes.Buffer
	require.NoError(t, WriteQuads(&buf, quads))
	assert.Equal(t, want, buf.String())
}

func TestNamedNode_WritesIRIVerbatim(t *testing.T) {
	for _, iri := range []string{
		"http://example.org/a b",
		"http://example.org/a|b^c{d}`e",
		`http://example.org/a\u0020b`,
	} {
		assert.Equal(t, "<"+iri+">", NewNamedNode(iri).String())
	}
}

func TestLiteral_CarriageReturnBeforeLineFeed(t *testing.T) {
	assert.Equal(t, `"a\u000D\nb"`, NewLiteral("a\r\nb").String())
	assert.Equal(t, `"a\rb\r"`, NewLiteral("a\rb\r").String())
	assert.Equal(t, `"a\n\rb"`, NewLiteral("a\n\rb").String())
}
