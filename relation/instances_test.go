package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/knights-analytics/chemrex/document"
)

func span(start, end int, label, subType string) document.EntitySpan {
	return document.EntitySpan{Start: start, End: end, Label: label, SubType: subType}
}

func docWithEnts(ents ...document.EntitySpan) *document.Document {
	doc := document.NewFromText("w0 w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 w11")
	doc.Ents = ents
	return doc
}

func TestPairsDirection(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
		span(4, 5, document.LabelProp, "temperature"),
	)
	pairs := InstanceGenerator{}.Pairs(doc)

	assert.Len(t, pairs, 2)
	for _, pair := range pairs {
		assert.NotEqual(t, pair.Head, pair.Tail)
		assert.True(t, document.IsHeadLabel(pair.Head.Label))
		assert.False(t, document.IsHeadLabel(pair.Tail.Label))
	}
}

func TestPairsDistanceBound(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(10, 11, "TEMPERATURE", ""),
	)
	assert.Empty(t, InstanceGenerator{MaxLength: 5}.Pairs(doc))
	assert.Len(t, InstanceGenerator{MaxLength: 10}.Pairs(doc), 1)
	// zero means unbounded
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)
}

func TestPairsUnitGuard(t *testing.T) {
	// density only accepts solubility and density units
	doc := docWithEnts(
		span(0, 1, document.LabelProp, "density"),
		span(2, 3, "TEMPERATURE", ""),
	)
	assert.Empty(t, InstanceGenerator{}.Pairs(doc))

	doc = docWithEnts(
		span(0, 1, document.LabelProp, "density"),
		span(2, 3, "DENSITY", ""),
	)
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)

	// toxicity registers an empty unit set, any unit passes
	doc = docWithEnts(
		span(0, 1, document.LabelProp, "toxicity"),
		span(2, 3, "TEMPERATURE", ""),
	)
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)

	// an unregistered sub-type is unconstrained
	doc = docWithEnts(
		span(0, 1, document.LabelProp, "no-such-property"),
		span(2, 3, "TEMPERATURE", ""),
	)
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)
}

func TestPairsGenericValueBypassesUnitGuard(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelProp, "density"),
		span(2, 3, document.LabelValue, ""),
	)
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)
}

func TestPairsChemHeadIgnoresUnits(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
	)
	assert.Len(t, InstanceGenerator{}.Pairs(doc), 1)
}

func TestPairsFewerThanTwoEntities(t *testing.T) {
	assert.Empty(t, InstanceGenerator{}.Pairs(docWithEnts()))
	assert.Empty(t, InstanceGenerator{}.Pairs(docWithEnts(span(0, 1, document.LabelChem, ""))))
}

func TestPairsDiscoveryOrder(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 4, document.LabelProp, "temperature"),
		span(5, 7, "TEMPERATURE", ""),
	)
	pairs := InstanceGenerator{}.Pairs(doc)

	assert.Len(t, pairs, 2)
	assert.Equal(t, 0, pairs[0].Head.Start)
	assert.Equal(t, 2, pairs[1].Head.Start)
	assert.Equal(t, 5, pairs[0].Tail.Start)
	assert.Equal(t, 5, pairs[1].Tail.Start)
}
