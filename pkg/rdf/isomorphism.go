package rdf

import (
	"sort"
	"strings"
)

// AreQuadsIsomorphic reports whether two quad sets are equal up to a
// renaming of blank nodes. Blank nodes may appear as subject, object or
// graph name. Duplicate quads are ignored on both sides.
func AreQuadsIsomorphic(expected, actual []*Quad) bool {
	expectedSet := quadSet(expected, nil)
	actualSet := quadSet(actual, nil)
	if len(expectedSet) != len(actualSet) {
		return false
	}

	expectedBlanks := blankLabels(expected)
	actualBlanks := blankLabels(actual)
	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}
	if len(expectedBlanks) == 0 {
		return sameKeys(expectedSet, actualSet)
	}

	m := &blankMatcher{
		expected:      expected,
		actualSet:     actualSet,
		expectedOrder: byDegree(expectedBlanks, expected),
		candidates:    actualBlanks,
		mapping:       make(map[string]string, len(expectedBlanks)),
		used:          make(map[string]bool, len(actualBlanks)),
	}
	return m.search(0)
}

// blankMatcher searches for a bijection between blank node IDs by
// backtracking, pruning as soon as a fully mapped quad has no counterpart
type blankMatcher struct {
	expected      []*Quad
	actualSet     map[string]bool
	expectedOrder []string
	candidates    []string
	mapping       map[string]string
	used          map[string]bool
}

func (m *blankMatcher) search(i int) bool {
	if i == len(m.expectedOrder) {
		return sameKeys(quadSet(m.expected, m.mapping), m.actualSet)
	}

	from := m.expectedOrder[i]
	for _, to := range m.candidates {
		if m.used[to] {
			continue
		}
		m.mapping[from] = to
		m.used[to] = true

		if m.consistent() && m.search(i+1) {
			return true
		}

		delete(m.mapping, from)
		delete(m.used, to)
	}
	return false
}

func (m *blankMatcher) consistent() bool {
	for _, q := range m.expected {
		if !mapped(q.Subject, m.mapping) || !mapped(q.Object, m.mapping) || !mapped(q.Graph, m.mapping) {
			continue
		}
		if !m.actualSet[quadKey(q, m.mapping)] {
			return false
		}
	}
	return true
}

func mapped(t Term, mapping map[string]string) bool {
	b, ok := t.(*BlankNode)
	if !ok {
		return true
	}
	_, ok = mapping[b.ID]
	return ok
}

func blankLabels(quads []*Quad) []string {
	seen := make(map[string]bool)
	for _, q := range quads {
		for _, t := range []Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				seen[b.ID] = true
			}
		}
	}

	labels := make([]string, 0, len(seen))
	for id := range seen {
		labels = append(labels, id)
	}
	sort.Strings(labels)
	return labels
}

// byDegree orders blank nodes most-connected first, which prunes the
// search earliest
func byDegree(labels []string, quads []*Quad) []string {
	degree := make(map[string]int, len(labels))
	for _, q := range quads {
		for _, t := range []Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				degree[b.ID]++
			}
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return degree[labels[i]] > degree[labels[j]]
	})
	return labels
}

func quadSet(quads []*Quad, mapping map[string]string) map[string]bool {
	set := make(map[string]bool, len(quads))
	for _, q := range quads {
		set[quadKey(q, mapping)] = true
	}
	return set
}

func sameKeys(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func quadKey(q *Quad, mapping map[string]string) string {
	var sb strings.Builder
	for i, t := range []Term{q.Subject, q.Predicate, q.Object, q.Graph} {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(termKey(t, mapping))
	}
	return sb.String()
}

func termKey(t Term, mapping map[string]string) string {
	switch t := t.(type) {
	case nil:
		return NewDefaultGraph().String()
	case *BlankNode:
		if to, ok := mapping[t.ID]; ok {
			return "_:" + to
		}
		return t.String()
	default:
		return t.String()
	}
}
