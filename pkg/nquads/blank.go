package nquads

import "github.com/aleksaelezovic/quadline/pkg/rdf"

// blankNodeTable maps document labels to allocated blank nodes for the
// duration of one ParseString call.
type blankNodeTable struct {
	factory rdf.Factory
	nodes   map[string]*rdf.BlankNode
}

func newBlankNodeTable(factory rdf.Factory) *blankNodeTable {
	return &blankNodeTable{
		factory: factory,
		nodes:   make(map[string]*rdf.BlankNode),
	}
}

// resolve returns the node for label, allocating a fresh one on first sight
func (t *blankNodeTable) resolve(label string) *rdf.BlankNode {
	if node, ok := t.nodes[label]; ok {
		return node
	}
	node := t.factory.BlankNode("")
	t.nodes[label] = node
	return node
}

func (t *blankNodeTable) len() int {
	return len(t.nodes)
}
