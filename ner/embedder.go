package ner

import (
	"fmt"

	"github.com/knights-analytics/chemrex/document"
)

// TransformerEmbedder produces one embedding vector per document token
// from a transformer encoder's hidden states. Subword vectors overlapping
// a document token are mean-pooled into that token's vector; tokens with
// no overlapping subword get a zero vector.
type TransformerEmbedder struct {
	model *onnxModel
}

func NewTransformerEmbedder(modelDir string) (*TransformerEmbedder, error) {
	model, err := loadONNXModel(modelDir)
	if err != nil {
		return nil, fmt.Errorf("token embedder: %w", err)
	}
	return &TransformerEmbedder{model: model}, nil
}

func (e *TransformerEmbedder) Embed(docs []*document.Document) ([][][]float32, error) {
	out := make([][][]float32, len(docs))
	for i, doc := range docs {
		vectors, err := e.embedDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", i, err)
		}
		out[i] = vectors
	}
	return out, nil
}

func (e *TransformerEmbedder) embedDocument(doc *document.Document) ([][]float32, error) {
	encoding, err := e.model.encode(doc.Text)
	if err != nil {
		return nil, err
	}
	states, shape, err := e.model.run(encoding)
	if err != nil {
		return nil, err
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("expected 3D hidden states, got shape %v", shape)
	}
	seqLen, hidden := shape[1], shape[2]

	vectors := make([][]float32, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		vector := make([]float32, hidden)
		count := 0
		for j := 0; j < seqLen && j < len(encoding.Offsets); j++ {
			if encoding.SpecialTokenMask[j] > 0 {
				continue
			}
			offset := encoding.Offsets[j]
			if offset[1] <= tok.Start || offset[0] >= tok.End() {
				continue
			}
			for k := 0; k < hidden; k++ {
				vector[k] += states[j*hidden+k]
			}
			count++
		}
		if count > 1 {
			for k := range vector {
				vector[k] /= float32(count)
			}
		}
		vectors[i] = vector
	}
	return vectors, nil
}
