package relation

import (
	"sort"

	"github.com/knights-analytics/chemrex/document"
)

// DefaultThreshold is the probability above which a scored edge counts as
// a relation.
const DefaultThreshold = 0.45

// AssembleTuples groups the qualifying edges of doc's relation matrix
// into one tuple per tail span. An edge qualifies when any of its label
// probabilities reaches threshold, inclusive. All qualifying heads
// pointing at the same tail accumulate into that tail's tuple. Tuples are
// emitted in first-appearance order of their tail in the matrix; edges
// referencing a token offset with no entity span are skipped.
func AssembleTuples(doc *document.Document, threshold float32) []document.ChemPropValueTuple {
	if doc.Relation == nil || doc.Relation.Len() == 0 {
		return nil
	}
	builders := map[int]*document.ChemPropValueTuple{}
	var tailOrder []int
	for _, entry := range doc.Relation.Entries() {
		labels := make([]string, 0, len(entry.Probs))
		for label := range entry.Probs {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			if entry.Probs[label] < threshold {
				continue
			}
			tail, ok := doc.EntityAt(entry.Tail)
			if !ok {
				continue
			}
			head, ok := doc.EntityAt(entry.Head)
			if !ok {
				continue
			}
			builder, ok := builders[entry.Tail]
			if !ok {
				builder = &document.ChemPropValueTuple{Doc: doc, Value: tail}
				builders[entry.Tail] = builder
				tailOrder = append(tailOrder, entry.Tail)
			}
			builder.AddHead(head)
		}
	}
	tuples := make([]document.ChemPropValueTuple, 0, len(tailOrder))
	for _, tail := range tailOrder {
		tuples = append(tuples, *builders[tail])
	}
	return tuples
}
