package corpus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knights-analytics/chemrex/document"
)

func TestSaveLoadDocumentsRoundTrip(t *testing.T) {
	doc := document.NewFromText("benzene melts at 80 °C")
	doc.Title = "a title"
	doc.Section = "Results"
	doc.Ents = []document.EntitySpan{
		{Start: 0, End: 1, Label: document.LabelChem, Text: "benzene"},
		{Start: 3, End: 5, Label: "TEMPERATURE", Text: "80 °C"},
	}
	doc.Relation.Set(0, 3, "has_value", 0.75)

	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, SaveDocuments(path, []*document.Document{doc, document.NewFromText("second")}))

	loaded, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, doc.Text, loaded[0].Text)
	assert.Equal(t, doc.Ents, loaded[0].Ents)
	probs, ok := loaded[0].Relation.Get(0, 3)
	require.True(t, ok)
	assert.Equal(t, float32(0.75), probs["has_value"])
	assert.Equal(t, "second", loaded[1].Text)
}

func TestFilterDocument(t *testing.T) {
	// property with matching quantity unit
	doc := document.NewFromText("density is 1.6 g/cm3")
	doc.Ents = []document.EntitySpan{
		{Start: 0, End: 1, Label: document.LabelProp, SubType: "density"},
		{Start: 2, End: 4, Label: "DENSITY"},
	}
	assert.True(t, FilterDocument(doc))

	// property whose units exclude the only quantity
	doc.Ents[1].Label = "TEMPERATURE"
	assert.False(t, FilterDocument(doc))

	// unconstrained property sub-type accepts any quantity
	doc.Ents[0].SubType = "toxicity"
	assert.True(t, FilterDocument(doc))

	// no quantities at all
	doc.Ents = doc.Ents[:1]
	assert.False(t, FilterDocument(doc))

	// chemicals alone carry no property evidence
	doc.Ents = []document.EntitySpan{
		{Start: 0, End: 1, Label: document.LabelChem},
		{Start: 2, End: 4, Label: "TEMPERATURE"},
	}
	assert.False(t, FilterDocument(doc))
}

const sampleExport = `[
 {"data": {"text": "benzene melts at 80", "title": "t", "doi": "10.1/x", "section": "Results"},
  "annotations": [{"result": [
   {"id": "e1", "type": "labels", "value": {"start": 0, "end": 7, "text": "benzene", "labels": ["CHEM"]}},
   {"id": "e2", "type": "labels", "value": {"start": 8, "end": 13, "text": "melts", "labels": ["PROP:temperature"]}},
   {"id": "e3", "type": "labels", "value": {"start": 17, "end": 19, "text": "80", "labels": ["VALUE"]}},
   {"type": "relation", "from_id": "e1", "to_id": "e3", "labels": ["has_value"]},
   {"type": "relation", "from_id": "e2", "to_id": "e1", "labels": ["Has Param"]}
  ]}]},
 {"data": {"text": "nothing annotated"}, "annotations": []}
]`

func TestImportTasks(t *testing.T) {
	docs, err := ImportTasks([]byte(sampleExport), nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	doc := docs[0]
	assert.Equal(t, "t", doc.Title)
	assert.Equal(t, "10.1/x", doc.DOI)
	assert.Equal(t, "Results", doc.Section)
	require.Len(t, doc.Ents, 3)
	assert.Equal(t, document.LabelChem, doc.Ents[0].Label)
	assert.Equal(t, "temperature", doc.Ents[1].SubType)

	// annotated link scores one, every other candidate pair zero
	probs, ok := doc.Relation.Get(0, 3)
	require.True(t, ok)
	assert.Equal(t, float32(1), probs[HasValueLabel])

	probs, ok = doc.Relation.Get(1, 3)
	require.True(t, ok)
	assert.Equal(t, float32(0), probs[HasValueLabel])

	// the Has Param edge stays out entirely
	_, ok = doc.Relation.Get(1, 0)
	assert.False(t, ok)

	assert.Equal(t, 0, docs[1].Relation.Len())
}

func TestImportTasksBadSpan(t *testing.T) {
	export := `[{"data": {"text": "short"}, "annotations": [{"result": [
		{"id": "e1", "type": "labels", "value": {"start": 50, "end": 60, "text": "x", "labels": ["CHEM"]}}
	]}]}]`
	_, err := ImportTasks([]byte(export), nil)
	assert.Error(t, err)
}
