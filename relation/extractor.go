package relation

import (
	"fmt"

	"github.com/knights-analytics/chemrex/document"
)

// Embedder supplies one embedding vector per document token. The relation
// stage only reads the vectors; implementations own caching and batching.
type Embedder interface {
	Embed(docs []*document.Document) ([][][]float32, error)
}

// Extractor runs the full scoring chain over a batch of documents:
// candidate generation, tensor building, classification, and writing the
// scored matrix back onto each document.
type Extractor struct {
	Generator  InstanceGenerator
	Builder    TensorBuilder
	Classifier *Classifier
	Embedder   Embedder
}

// Extract scores every candidate pair of every document and fills each
// document's relation matrix in pair-generation order. Documents without
// candidate pairs get an empty matrix.
func (e *Extractor) Extract(docs []*document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	embeddings, err := e.Embedder.Embed(docs)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	pairs := make([][]InstancePair, len(docs))
	for i, doc := range docs {
		pairs[i] = e.Generator.Pairs(doc)
	}
	rows, _, err := e.Builder.Forward(docs, embeddings, pairs)
	if err != nil {
		return fmt.Errorf("building pair tensors: %w", err)
	}
	probs, err := e.Classifier.Score(rows)
	if err != nil {
		return err
	}
	row := 0
	for i, doc := range docs {
		matrix := document.NewRelationMatrix()
		for _, pair := range pairs[i] {
			for j, label := range e.Classifier.Labels {
				matrix.Set(pair.Head.Start, pair.Tail.Start, label, probs[row][j])
			}
			row++
		}
		doc.Relation = matrix
	}
	return nil
}
