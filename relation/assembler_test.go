package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knights-analytics/chemrex/document"
)

func TestAssembleGroupsHeadsByTail(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, document.LabelProp, "temperature"),
		span(4, 5, "TEMPERATURE", ""),
	)
	doc.Relation.Set(0, 4, "has_value", 0.9)
	doc.Relation.Set(2, 4, "has_value", 0.5)

	tuples := AssembleTuples(doc, DefaultThreshold)

	require.Len(t, tuples, 1)
	assert.Equal(t, 4, tuples[0].Value.Start)
	require.Len(t, tuples[0].Chemicals, 1)
	require.Len(t, tuples[0].Properties, 1)
	assert.Equal(t, 0, tuples[0].Chemicals[0].Start)
	assert.Equal(t, 2, tuples[0].Properties[0].Start)
}

func TestAssembleThresholdIsInclusive(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
	)
	doc.Relation.Set(0, 2, "has_value", 0.45)

	assert.Len(t, AssembleTuples(doc, 0.45), 1)
}

func TestAssembleBelowThreshold(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
	)
	doc.Relation.Set(0, 2, "has_value", 0.4)

	assert.Empty(t, AssembleTuples(doc, 0.45))
}

func TestAssembleEmptyMatrix(t *testing.T) {
	doc := docWithEnts(span(0, 1, document.LabelChem, ""))
	assert.Empty(t, AssembleTuples(doc, 0.45))

	doc.Relation = nil
	assert.Empty(t, AssembleTuples(doc, 0.45))
}

func TestAssembleSkipsUnresolvedSpans(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
	)
	// head offset 7 resolves to no span
	doc.Relation.Set(7, 2, "has_value", 0.9)
	doc.Relation.Set(0, 2, "has_value", 0.9)

	tuples := AssembleTuples(doc, 0.45)
	require.Len(t, tuples, 1)
	assert.Len(t, tuples[0].Chemicals, 1)
}

func TestAssembleDistinctTailsInFirstAppearanceOrder(t *testing.T) {
	doc := docWithEnts(
		span(0, 1, document.LabelChem, ""),
		span(2, 3, "TEMPERATURE", ""),
		span(4, 5, "PRESSURE", ""),
	)
	doc.Relation.Set(0, 4, "has_value", 0.8)
	doc.Relation.Set(0, 2, "has_value", 0.8)

	tuples := AssembleTuples(doc, 0.45)
	require.Len(t, tuples, 2)
	assert.Equal(t, 4, tuples[0].Value.Start)
	assert.Equal(t, 2, tuples[1].Value.Start)
}

func TestAssembleEndToEnd(t *testing.T) {
	text := "benzene has a boiling point of about 80 °C"
	doc := document.NewFromText(text)
	doc.Ents = []document.EntitySpan{
		{Start: 0, End: 1, Label: document.LabelChem, Text: "benzene"},
		{Start: 3, End: 5, Label: document.LabelProp, SubType: "temperature", Text: "boiling point"},
		{Start: 7, End: 9, Label: "TEMPERATURE", Text: "80 °C"},
	}
	doc.Relation = document.NewRelationMatrix()
	doc.Relation.Set(0, 7, "has_value", 0.6)
	doc.Relation.Set(3, 7, "has_value", 0.7)

	tuples := AssembleTuples(doc, 0.45)

	require.Len(t, tuples, 1)
	assert.Equal(t, "80 °C", tuples[0].Value.Text)
	require.Len(t, tuples[0].Chemicals, 1)
	assert.Equal(t, "benzene", tuples[0].Chemicals[0].Text)
	require.Len(t, tuples[0].Properties, 1)
	assert.Equal(t, "boiling point", tuples[0].Properties[0].Text)
}
