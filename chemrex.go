// Package chemrex extracts chemical-compound/property/value relations
// from scientific articles: rule and model based entity recognition, a
// learned relation classifier linking properties and chemicals to their
// measured values, and compound enrichment against PubChem.
package chemrex

import (
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/ner"
	"github.com/knights-analytics/chemrex/pubchem"
	"github.com/knights-analytics/chemrex/relation"
	"github.com/knights-analytics/chemrex/util"
)

// TokenizeFunc cuts sentence text into offset-preserving tokens.
type TokenizeFunc func(text string) []document.Token

// Session wires the recognition stages, the relation extractor and the
// compound linker into one pipeline. Sessions are built once and reused
// across documents; the scoring components are read-only after
// construction.
type Session struct {
	stages    []ner.Stage
	extractor *relation.Extractor
	linker    *pubchem.Linker
	tokenize  TokenizeFunc
	threshold float32
	logger    log.Logger

	chemModelDir    string
	embedModelDir   string
	relationModel   string
	quantitiesURL   string
	maxPairDistance int
	minOccurrences  int
}

// Option configures a Session before it is assembled.
type Option func(*Session)

// WithChemModel points the transformer chemical recognizer at an onnx
// model directory. Without it the rule patterns still run.
func WithChemModel(dir string) Option {
	return func(s *Session) { s.chemModelDir = dir }
}

// WithEmbeddingModel points the relation stage's token embedder at an
// onnx encoder directory.
func WithEmbeddingModel(dir string) Option {
	return func(s *Session) { s.embedModelDir = dir }
}

// WithRelationModel loads the relation classifier parameters from path.
func WithRelationModel(path string) Option {
	return func(s *Session) { s.relationModel = path }
}

// WithQuantitiesService enables quantity recognition through the
// quantities-extraction service at baseURL.
func WithQuantitiesService(baseURL string) Option {
	return func(s *Session) { s.quantitiesURL = baseURL }
}

// WithThreshold overrides the relation probability threshold.
func WithThreshold(threshold float32) Option {
	return func(s *Session) { s.threshold = threshold }
}

// WithMaxPairDistance bounds the token distance between candidate pair
// spans. Zero means unbounded.
func WithMaxPairDistance(distance int) Option {
	return func(s *Session) { s.maxPairDistance = distance }
}

// WithMinOccurrences sets how often a chemical must appear in a batch
// before it is linked against the compound database.
func WithMinOccurrences(n int) Option {
	return func(s *Session) { s.minOccurrences = n }
}

// WithTokenizer injects the tokenizer used to cut article sentences.
func WithTokenizer(tokenize TokenizeFunc) Option {
	return func(s *Session) { s.tokenize = tokenize }
}

// WithLogger overrides the session logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession assembles a pipeline session. The rule-pattern recognizer is
// always active; the transformer recognizer, quantities service, relation
// scorer and compound linker activate with their options.
func NewSession(opts ...Option) (*Session, error) {
	s := &Session{
		tokenize:       document.WhitespaceTokens,
		threshold:      relation.DefaultThreshold,
		minOccurrences: pubchem.DefaultMinOccurrences,
		logger:         log.Logger{Level: log.InfoLevel},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chemModelDir != "" {
		stage, err := ner.NewChemStage(s.chemModelDir)
		if err != nil {
			return nil, fmt.Errorf("loading chemical recognizer: %w", err)
		}
		s.stages = append(s.stages, stage)
	}
	if s.quantitiesURL != "" {
		s.stages = append(s.stages, ner.NewQuantitiesStage(s.quantitiesURL))
	}
	s.stages = append(s.stages, ner.NewRulerStage(ner.PropertyPatterns()))

	if s.relationModel != "" {
		if s.embedModelDir == "" {
			return nil, errors.New("a relation model needs an embedding model")
		}
		data, err := util.ReadFileBytes(s.relationModel)
		if err != nil {
			return nil, fmt.Errorf("loading relation classifier: %w", err)
		}
		classifier, err := relation.LoadClassifier(data)
		if err != nil {
			return nil, err
		}
		embedder, err := ner.NewTransformerEmbedder(s.embedModelDir)
		if err != nil {
			return nil, err
		}
		s.extractor = &relation.Extractor{
			Generator:  relation.InstanceGenerator{MaxLength: s.maxPairDistance},
			Classifier: classifier,
			Embedder:   embedder,
		}
	}

	s.linker = pubchem.NewLinker(pubchem.NewCache(), &s.logger)
	return s, nil
}

// AnnotateArticle cuts an article into sentence documents and runs the
// recognition stages over each of them.
func (s *Session) AnnotateArticle(article *document.Article) ([]*document.Document, error) {
	sentences := article.Sentences()
	docs := make([]*document.Document, 0, len(sentences))
	for _, sentence := range sentences {
		doc := document.New(sentence.Text, s.tokenize(sentence.Text))
		doc.Title = article.Title
		doc.DOI = article.DOI
		doc.Section = sentence.Section
		docs = append(docs, doc)
	}
	if err := s.Annotate(docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Annotate runs the recognition stages over each document.
func (s *Session) Annotate(docs []*document.Document) error {
	for i, doc := range docs {
		if err := ner.Annotate(doc, s.stages); err != nil {
			return fmt.Errorf("annotating document %d: %w", i, err)
		}
	}
	return nil
}

// ExtractRelations scores candidate pairs and fills each document's
// relation matrix. Documents are scored one at a time so one bad document
// cannot abort the batch; failures are logged and that document's matrix
// stays empty.
func (s *Session) ExtractRelations(docs []*document.Document) error {
	if s.extractor == nil {
		return errors.New("session has no relation model")
	}
	for i, doc := range docs {
		if err := s.extractor.Extract([]*document.Document{doc}); err != nil {
			s.logger.Warn().Err(err).Int("document", i).Msg("relation extraction failed")
			doc.Relation = document.NewRelationMatrix()
		}
	}
	return nil
}

// TupleFilter decides which assembled tuples a caller accepts.
type TupleFilter struct {
	RequireChemicals  bool
	RequireProperties bool
}

// Tuples assembles the scored relation matrices of docs into exchange
// records, filtered by filter.
func (s *Session) Tuples(docs []*document.Document, filter TupleFilter) []document.TupleRecord {
	var records []document.TupleRecord
	for _, doc := range docs {
		for _, tuple := range relation.AssembleTuples(doc, s.threshold) {
			if filter.RequireChemicals && len(tuple.Chemicals) == 0 {
				continue
			}
			if filter.RequireProperties && len(tuple.Properties) == 0 {
				continue
			}
			records = append(records, tuple.Record())
		}
	}
	return records
}

// LinkCompounds resolves the frequent chemical mentions of docs against
// the compound database.
func (s *Session) LinkCompounds(docs []*document.Document) pubchem.Annotations {
	return s.linker.LinkDocuments(docs, s.minOccurrences)
}
