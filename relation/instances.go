// Package relation implements the relation-extraction core: candidate
// pair generation, the instance tensor builder with its mean-pooling
// forward and gradient-accumulating backward passes, the sigmoid relation
// classifier, and the deterministic assembler that groups scored edges
// into chemical/property/value tuples.
package relation

import (
	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/ner"
)

// InstancePair is a candidate directed relation between two entity spans
// of one document. Pairs exist only transiently during scoring.
type InstancePair struct {
	Head document.EntitySpan
	Tail document.EntitySpan
}

// InstanceGenerator enumerates candidate (head, tail) pairs per document.
// MaxLength bounds the token distance between the two span starts; zero
// means unbounded.
type InstanceGenerator struct {
	MaxLength int
}

// Pairs returns all valid candidate pairs of doc in discovery order: the
// outer loop picks the head span, the inner loop the tail span.
func (g InstanceGenerator) Pairs(doc *document.Document) []InstancePair {
	var pairs []InstancePair
	for i, head := range doc.Ents {
		for j, tail := range doc.Ents {
			if i == j {
				continue
			}
			if g.MaxLength > 0 && abs(tail.Start-head.Start) > g.MaxLength {
				continue
			}
			if !canLink(head, tail) {
				continue
			}
			pairs = append(pairs, InstancePair{Head: head, Tail: tail})
		}
	}
	return pairs
}

// canLink applies the type-direction rule and the unit-compatibility
// guard: heads are chemical/property/formula spans, tails are quantity
// spans, and a property whose sub-type registers a non-empty allowed-unit
// set only links to tails carrying one of those units. An unregistered
// sub-type, or one registered with an empty set, accepts any unit.
func canLink(head, tail document.EntitySpan) bool {
	if !document.IsHeadLabel(head.Label) || document.IsHeadLabel(tail.Label) {
		return false
	}
	if head.Label == document.LabelChem || tail.Label == document.LabelValue {
		return true
	}
	units, ok := ner.PropertyToUnits[head.SubType]
	if !ok || len(units) == 0 {
		return true
	}
	for _, unit := range units {
		if tail.Label == unit {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
