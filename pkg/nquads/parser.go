// Package nquads decodes N-Quads and N-Triples documents line by line.
//
// Every statement must fit on a single line. Term boundaries are found with
// fixed delimiters rather than a grammar, and a malformed line only affects
// itself: its error goes to the parser's error handler and decoding carries
// on with the next line.
package nquads

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
)

const (
	nnOpeningToken   = '<'
	nnClosingToken   = ">"
	nnClosingPostfix = "> "
	bnOpeningToken   = '_'
	bnOpeningPrefix  = "_:"
	bnClosingToken   = " "
	commentToken     = '#'
)

// Store receives decoded quads
type Store interface {
	Add(subject, predicate, object, graph rdf.Term) error
}

// StoreFunc adapts a function to the Store interface
type StoreFunc func(subject, predicate, object, graph rdf.Term) error

func (f StoreFunc) Add(subject, predicate, object, graph rdf.Term) error {
	return f(subject, predicate, object, graph)
}

// ErrorHandler is called once for every line that fails to decode
type ErrorHandler func(err *ParseError)

// LogError is the default ErrorHandler; it logs the error and drops the line.
func LogError(err *ParseError) {
	clog.Errorf("nquads: %v: %q", err, err.Line)
}

// Option configures a Parser
type Option func(*Parser)

// WithErrorHandler replaces the default log-and-continue handler
func WithErrorHandler(h ErrorHandler) Option {
	return func(p *Parser) {
		if h != nil {
			p.onError = h
		}
	}
}

// WithMetrics enables or disables the prometheus line counters
func WithMetrics(enabled bool) Option {
	return func(p *Parser) {
		p.metrics = enabled
	}
}

// Parser decodes N-Quads text into quads. It holds no per-document state,
// so one Parser may be used from several goroutines at once as long as its
// factory and store allow it.
type Parser struct {
	factory rdf.Factory
	store   Store
	onError ErrorHandler
	metrics bool
}

// NewParser creates a parser. A nil factory falls back to rdf.NewDataFactory;
// store may be nil when only ParseString is used.
func NewParser(factory rdf.Factory, store Store, opts ...Option) *Parser {
	if factory == nil {
		factory = rdf.NewDataFactory()
	}
	p := &Parser{
		factory: factory,
		store:   store,
		onError: LogError,
		metrics: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString decodes every line of text. Blank lines and comments are
// skipped, failed lines are reported to the error handler, and neither
// leaves an entry in the result: the returned quads are the successfully
// decoded lines in input order. Blank node labels are scoped to this call.
func (p *Parser) ParseString(text string) []*rdf.Quad {
	if len(text) == 0 {
		return nil
	}

	rawStatements := strings.Split(text, "\n")
	quads := make([]*rdf.Quad, 0, len(rawStatements))
	blanks := newBlankNodeTable(p.factory)

	var parsed, skipped, failed int
	for i, raw := range rawStatements {
		cleaned := strings.TrimSpace(raw)
		if len(cleaned) == 0 || cleaned[0] == commentToken {
			skipped++
			continue
		}

		d := lineDecoder{
			sc:      newScanner(cleaned),
			factory: p.factory,
			blanks:  blanks,
		}
		quad, err := d.decode()
		if err != nil {
			failed++
			err.Line = raw
			err.LineNo = i + 1
			p.onError(err)
			continue
		}

		parsed++
		quads = append(quads, quad)
	}

	if p.metrics {
		observeLines(parsed, skipped, failed)
	}
	if clog.V(2) {
		clog.Infof("nquads: decoded %d lines, skipped %d, failed %d, %d blank nodes",
			parsed, skipped, failed, blanks.len())
	}

	return quads
}

// LoadBuf parses text and adds every decoded quad to the store, in order.
// Parse errors never surface here. A store error stops the load; quads
// added before it stay in the store.
func (p *Parser) LoadBuf(text string) error {
	if p.store == nil {
		return ErrNoStore
	}

	quads := p.ParseString(text)
	for i, q := range quads {
		if err := p.store.Add(q.Subject, q.Predicate, q.Object, q.Graph); err != nil {
			if p.metrics {
				mQuadsLoaded.Add(float64(i))
			}
			return fmt.Errorf("failed to add quad %d (%s): %w", i, q, err)
		}
	}

	if p.metrics {
		mQuadsLoaded.Add(float64(len(quads)))
	}
	return nil
}

// lineDecoder walks one trimmed statement through the subject, predicate,
// object and graph phases.
type lineDecoder struct {
	sc      *scanner
	factory rdf.Factory
	blanks  *blankNodeTable
}

func (d *lineDecoder) decode() (*rdf.Quad, *ParseError) {
	subject, err := d.subject()
	if err != nil {
		return nil, err
	}
	predicate, err := d.predicate()
	if err != nil {
		return nil, err
	}
	object, err := d.object()
	if err != nil {
		return nil, err
	}
	graph, err := d.graph()
	if err != nil {
		return nil, err
	}
	return &rdf.Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}, nil
}

func (d *lineDecoder) subject() (rdf.Term, *ParseError) {
	sc := d.sc
	switch sc.peek() {
	case nnOpeningToken:
		rightBoundary := sc.indexFrom(0, nnClosingPostfix)
		if rightBoundary == -1 {
			return nil, missingClosingAngleBracket(0)
		}
		sc.advance(rightBoundary + len(nnClosingPostfix))
		return d.factory.NamedNode(sc.slice(1, rightBoundary)), nil

	case bnOpeningToken:
		if !sc.hasPrefixAt(0, bnOpeningPrefix) {
			return nil, unexpectedCharacter(sc.peekRune(1), 1)
		}
		rightBoundary := sc.indexFrom(0, bnClosingToken)
		if rightBoundary == -1 {
			// Nothing but a label; the predicate phase reports the failure.
			rightBoundary = len(sc.line)
		}
		sc.advance(rightBoundary + len(bnClosingToken))
		return d.blanks.resolve(sc.slice(len(bnOpeningPrefix), rightBoundary)), nil

	default:
		return nil, sc.unexpected()
	}
}

// predicate is always a named node; blank node predicates are not accepted
func (d *lineDecoder) predicate() (rdf.Term, *ParseError) {
	sc := d.sc
	rightBoundary := sc.indexFrom(sc.pos, nnClosingPostfix)
	if rightBoundary == -1 {
		return nil, missingClosingAngleBracket(sc.pos)
	}
	leftBoundary := sc.indexFrom(sc.pos, string(nnOpeningToken))
	if leftBoundary == -1 || leftBoundary > rightBoundary {
		return nil, sc.unexpected()
	}
	sc.advance(rightBoundary + len(nnClosingPostfix))
	return d.factory.NamedNode(sc.slice(leftBoundary+1, rightBoundary)), nil
}

func (d *lineDecoder) object() (rdf.Term, *ParseError) {
	sc := d.sc
	switch sc.peek() {
	case nnOpeningToken:
		// In N-Triples the closing bracket may end the line, so "> " can't be used
		leftBoundary := sc.pos + 1
		rightBoundary := sc.indexFrom(leftBoundary, nnClosingToken)
		if rightBoundary == -1 {
			return nil, missingClosingAngleBracket(sc.pos)
		}
		sc.advance(rightBoundary + len(nnClosingToken))
		return d.factory.NamedNode(sc.slice(leftBoundary, rightBoundary)), nil

	case bnOpeningToken:
		if !sc.hasPrefixAt(sc.pos, bnOpeningPrefix) {
			return nil, unexpectedCharacter(sc.peekRune(sc.pos+1), sc.pos+1)
		}
		leftBoundary := sc.pos + len(bnOpeningPrefix)
		rightBoundary := sc.indexFrom(leftBoundary, bnClosingToken)
		if rightBoundary == -1 {
			// Last term of a triple without terminator
			rightBoundary = len(sc.line)
		}
		sc.advance(rightBoundary)
		return d.blanks.resolve(sc.slice(leftBoundary, rightBoundary)), nil

	case ltOpeningToken:
		return d.literal()

	default:
		return nil, sc.unexpected()
	}
}

// graph looks for an optional fourth term. Anything else left on the line,
// such as the terminating period, is ignored.
func (d *lineDecoder) graph() (rdf.Term, *ParseError) {
	sc := d.sc
	leftBoundary := sc.indexFrom(sc.pos, string(nnOpeningToken))
	if leftBoundary == -1 {
		return d.factory.DefaultGraph(), nil
	}
	rightBoundary := sc.indexFrom(leftBoundary+1, nnClosingPostfix)
	if rightBoundary == -1 {
		rightBoundary = sc.indexFrom(leftBoundary+1, nnClosingToken)
	}
	if rightBoundary == -1 {
		return nil, missingClosingAngleBracket(leftBoundary)
	}
	sc.advance(rightBoundary + len(nnClosingToken))
	return d.factory.NamedNode(sc.slice(leftBoundary+1, rightBoundary)), nil
}
