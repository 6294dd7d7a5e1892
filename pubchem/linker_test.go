package pubchem

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knights-analytics/chemrex/document"
)

var testLogger = log.Logger{Level: log.ErrorLevel, Writer: log.IOWriter{Writer: io.Discard}}

const ibuprofenProperties = `{"PropertyTable": {"Properties": [
	{"CID": 3672,
	 "MolecularFormula": "C13H18O2",
	 "MolecularWeight": "206.28",
	 "CanonicalSMILES": "CC(C)CC1=CC=C(C=C1)C(C)C(=O)O",
	 "IUPACName": "2-[4-(2-methylpropyl)phenyl]propanoic acid"}
]}}`

const ibuprofenSynonyms = `{"InformationList": {"Information": [
	{"CID": 3672, "Synonym": ["ibuprofen", "Advil", "Motrin"]}
]}}`

func newTestLinker(handler http.Handler) (*Linker, *httptest.Server) {
	server := httptest.NewServer(handler)
	linker := NewLinker(NewCache(), &testLogger)
	linker.BaseURL = server.URL
	return linker, server
}

func TestLinkResolvesAndCaches(t *testing.T) {
	var propertyCalls, synonymCalls int
	linker, server := newTestLinker(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/property/"):
			propertyCalls++
			_, _ = w.Write([]byte(ibuprofenProperties))
		case strings.Contains(r.URL.Path, "/synonyms/"):
			synonymCalls++
			_, _ = w.Write([]byte(ibuprofenSynonyms))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	record, err := linker.Link("ibuprofen")
	require.NoError(t, err)
	assert.Equal(t, 3672, record.CID)
	assert.Equal(t, "C13H18O2", record.MolecularFormula)
	assert.Equal(t, 1, propertyCalls)

	// a differently cased synonym must hit the cache, not the network
	cached, err := linker.Link("ADVIL")
	require.NoError(t, err)
	assert.Same(t, record, cached)
	assert.Equal(t, 1, propertyCalls)
	assert.Equal(t, 1, synonymCalls)
}

func TestLinkNotFoundIsNotCached(t *testing.T) {
	var calls int
	linker, server := newTestLinker(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"Fault": {"Code": "PUGREST.NotFound", "Message": "No CID found"}}`))
	}))
	defer server.Close()

	_, err := linker.Link("unobtainium")
	assert.ErrorIs(t, err, ErrNotFound)

	// no negative caching, the second call queries again
	_, err = linker.Link("unobtainium")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, calls)
}

func TestLinkTimeout(t *testing.T) {
	linker, server := newTestLinker(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte(`{"Fault": {"Code": "PUGREST.Timeout", "Message": "timed out"}}`))
	}))
	defer server.Close()

	_, err := linker.Link("anything")
	assert.ErrorIs(t, err, ErrTimeout)
}

func chemDoc(names ...string) *document.Document {
	doc := document.NewFromText(strings.Join(names, " "))
	for i, name := range names {
		doc.Ents = append(doc.Ents, document.EntitySpan{
			Start: i, End: i + 1, Label: document.LabelChem, Text: name,
		})
	}
	return doc
}

func TestLinkDocumentsMinOccurrences(t *testing.T) {
	var queried []string
	linker, server := newTestLinker(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/property/") {
			parts := strings.Split(r.URL.Path, "/")
			queried = append(queried, parts[3])
			_, _ = w.Write([]byte(ibuprofenProperties))
			return
		}
		_, _ = w.Write([]byte(ibuprofenSynonyms))
	}))
	defer server.Close()

	docs := []*document.Document{
		chemDoc("ibuprofen", "aspirin"),
		chemDoc("ibuprofen", "aspirin"),
		chemDoc("ibuprofen"),
	}
	annotations := linker.LinkDocuments(docs, 3)

	assert.Equal(t, []string{"ibuprofen"}, queried)
	require.Contains(t, annotations, "ibuprofen")
	assert.NotContains(t, annotations, "aspirin")
	assert.Equal(t, 3672, annotations["ibuprofen"].CID)
}

func TestLinkDocumentsCountsCaseSensitively(t *testing.T) {
	linker, server := newTestLinker(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ibuprofenProperties))
	}))
	defer server.Close()

	// two spellings with two occurrences each, neither reaches three
	docs := []*document.Document{
		chemDoc("Ibuprofen", "ibuprofen"),
		chemDoc("Ibuprofen", "ibuprofen"),
	}
	annotations := linker.LinkDocuments(docs, 3)
	assert.Empty(t, annotations)
}

func TestCacheSynonymLookup(t *testing.T) {
	cache := NewCache()
	record := &Record{CID: 241, MolecularFormula: "C6H6"}
	cache.Put(record, []string{"Benzene", "benzol"})

	got, ok := cache.BySynonym("BENZOL")
	require.True(t, ok)
	assert.Same(t, record, got)

	_, ok = cache.BySynonym("toluene")
	assert.False(t, ok)
}
