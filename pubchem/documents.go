package pubchem

import (
	"errors"

	"github.com/knights-analytics/chemrex/document"
)

// DefaultMinOccurrences is the batch occurrence count a chemical mention
// needs before it is worth a database round trip.
const DefaultMinOccurrences = 3

// Annotations is the linking side-table: resolved records keyed by the
// exact mention text. Entity spans stay untouched; consumers look up each
// CHEM span's text here.
type Annotations map[string]*Record

// LinkDocuments resolves the chemical mentions of a document batch.
// Mentions are counted case-sensitively and only names reaching
// minOccurrences are queried; synonym matching inside the cache is
// case-insensitive. Lookup failures are logged and skipped, the mention
// simply stays unlinked.
func (l *Linker) LinkDocuments(docs []*document.Document, minOccurrences int) Annotations {
	counts := map[string]int{}
	for _, doc := range docs {
		for _, ent := range doc.Ents {
			if ent.Label == document.LabelChem {
				counts[ent.Text]++
			}
		}
	}
	annotations := Annotations{}
	for name, count := range counts {
		if count < minOccurrences {
			continue
		}
		record, err := l.Link(name)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				l.logger.Info().Str("compound", name).Msg("compound not in database")
			case errors.Is(err, ErrTimeout):
				l.logger.Warn().Str("compound", name).Msg("compound lookup timed out")
			default:
				l.logger.Warn().Err(err).Str("compound", name).Msg("compound lookup failed")
			}
			continue
		}
		annotations[name] = record
	}
	return annotations
}
