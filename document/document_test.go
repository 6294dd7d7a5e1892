package document

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespaceTokens(t *testing.T) {
	tokens := WhitespaceTokens("  the melting point\tis 80 °C ")

	require.Len(t, tokens, 6)
	assert.Equal(t, "the", tokens[0].Text)
	assert.Equal(t, 2, tokens[0].Start)
	assert.Equal(t, "°C", tokens[5].Text)
	assert.Equal(t, "  the melting point\tis 80 °C "[tokens[5].Start:tokens[5].Start+len(tokens[5].Text)], tokens[5].Text)

	assert.Empty(t, WhitespaceTokens("   "))
	assert.Empty(t, WhitespaceTokens(""))
}

func TestTokenRange(t *testing.T) {
	doc := NewFromText("melting point of benzene")

	start, end, ok := doc.TokenRange(0, 13)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	// partial overlap still claims the token
	start, end, ok = doc.TokenRange(3, 9)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	start, end, ok = doc.TokenRange(17, 24)
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 4, end)

	_, _, ok = doc.TokenRange(100, 110)
	assert.False(t, ok)
}

func TestAddEntitiesSkipsClaimedTokens(t *testing.T) {
	doc := NewFromText("a b c d")
	doc.AddEntities(EntitySpan{Start: 1, End: 3, Label: LabelProp})
	doc.AddEntities(EntitySpan{Start: 2, End: 4, Label: LabelChem})
	doc.AddEntities(EntitySpan{Start: 0, End: 1, Label: LabelChem})

	require.Len(t, doc.Ents, 2)
	assert.Equal(t, LabelProp, doc.Ents[0].Label)
	assert.Equal(t, LabelChem, doc.Ents[1].Label)
	assert.Equal(t, 0, doc.Ents[1].Start)
}

func TestEntityAt(t *testing.T) {
	doc := NewFromText("a b c")
	doc.AddEntities(EntitySpan{Start: 1, End: 2, Label: LabelChem})

	ent, ok := doc.EntityAt(1)
	require.True(t, ok)
	assert.Equal(t, LabelChem, ent.Label)

	_, ok = doc.EntityAt(0)
	assert.False(t, ok)
}

func TestSpanText(t *testing.T) {
	doc := NewFromText("the melting point of benzene")
	assert.Equal(t, "melting point", doc.SpanText(EntitySpan{Start: 1, End: 3}))
	assert.Equal(t, "", doc.SpanText(EntitySpan{Start: 3, End: 3}))
}

func TestRelationMatrixOrderAndRoundTrip(t *testing.T) {
	matrix := NewRelationMatrix()
	matrix.Set(4, 8, "has_value", 0.9)
	matrix.Set(0, 8, "has_value", 0.2)
	matrix.Set(4, 8, "other", 0.1)

	entries := matrix.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 4, entries[0].Head)
	assert.Equal(t, 0, entries[1].Head)

	probs, ok := matrix.Get(4, 8)
	require.True(t, ok)
	assert.Equal(t, float32(0.9), probs["has_value"])
	assert.Equal(t, float32(0.1), probs["other"])

	data, err := jsoniter.Marshal(matrix)
	require.NoError(t, err)

	loaded := NewRelationMatrix()
	require.NoError(t, jsoniter.Unmarshal(data, loaded))
	assert.Equal(t, matrix.Entries(), loaded.Entries())

	probs, ok = loaded.Get(0, 8)
	require.True(t, ok)
	assert.Equal(t, float32(0.2), probs["has_value"])
}

func TestTupleRecord(t *testing.T) {
	doc := NewFromText("benzene boiling point 80 °C")
	doc.Title = "a title"
	doc.DOI = "10.1000/demo"
	doc.Section = "Results"

	tuple := ChemPropValueTuple{
		Doc:   doc,
		Value: EntitySpan{Label: "TEMPERATURE", Text: "80 °C", CharStart: 22, CharEnd: 27},
	}
	tuple.AddHead(EntitySpan{Label: LabelChem, Text: "benzene", CharStart: 0, CharEnd: 7})
	tuple.AddHead(EntitySpan{Label: LabelProp, SubType: "temperature", Text: "boiling point", CharStart: 8, CharEnd: 21})

	record := tuple.Record()
	assert.Equal(t, "a title", record.Title)
	assert.Equal(t, "10.1000/demo", record.DOI)
	assert.Equal(t, "Results", record.Section)
	require.Len(t, record.Chemicals, 1)
	require.Len(t, record.Properties, 1)
	assert.Equal(t, "", record.Chemicals[0].Type)
	assert.Equal(t, "temperature", record.Properties[0].Type)
	assert.Equal(t, 22, record.Value.Start)
	assert.Equal(t, 27, record.Value.End)
}

func TestArticleSentences(t *testing.T) {
	article := Article{
		Abstract: [][]string{{"first sentence.", "second sentence."}},
		Sections: []Section{
			{Heading: "Results", Paragraphs: [][]string{{"third sentence."}}},
		},
	}
	sentences := article.Sentences()

	require.Len(t, sentences, 3)
	assert.Equal(t, "Abstract", sentences[0].Section)
	assert.Equal(t, "Results", sentences[2].Section)
	assert.Equal(t, "third sentence.", sentences[2].Text)
}
