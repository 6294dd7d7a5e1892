package relation

import (
	"fmt"

	"github.com/knights-analytics/chemrex/document"
)

// gradEpsilon guards the contribution-count division in the backward pass
// so tokens that never appear in a pooled span divide zero by epsilon
// rather than by zero.
const gradEpsilon = 1e-11

// spanRef records one pooled span occurrence: which row and half of the
// pair matrix it fills and which token range of which document it covers.
type spanRef struct {
	doc   int
	start int
	end   int
	row   int
	half  int
}

// PoolContext is the bookkeeping the forward pass hands to the backward
// pass: every span occurrence with its row position, plus the token
// counts of each input document.
type PoolContext struct {
	refs      []spanRef
	docTokens []int
	hidden    int
}

// TensorBuilder converts per-document token embeddings and instance pairs
// into one fixed-width feature vector per pair, and defines the gradient
// flow back into the token embeddings.
type TensorBuilder struct{}

// Forward mean-pools the head and tail span embeddings of every pair and
// concatenates them into one row per pair. Rows are ordered document-major
// then pair-order; a document with zero pairs contributes zero rows.
// embeddings[i] is the tokens-by-hidden matrix of docs[i], and pairs[i]
// its candidate list.
func (TensorBuilder) Forward(docs []*document.Document, embeddings [][][]float32, pairs [][]InstancePair) ([][]float32, *PoolContext, error) {
	if len(docs) != len(embeddings) || len(docs) != len(pairs) {
		return nil, nil, fmt.Errorf("batch size mismatch: %d documents, %d embedding sequences, %d pair lists",
			len(docs), len(embeddings), len(pairs))
	}
	hidden := 0
	for _, vectors := range embeddings {
		if len(vectors) > 0 {
			hidden = len(vectors[0])
			break
		}
	}
	ctx := &PoolContext{docTokens: make([]int, len(docs)), hidden: hidden}
	var rows [][]float32
	for i, doc := range docs {
		vectors := embeddings[i]
		if len(vectors) != len(doc.Tokens) {
			return nil, nil, fmt.Errorf("document %d: %d embedding vectors for %d tokens", i, len(vectors), len(doc.Tokens))
		}
		ctx.docTokens[i] = len(doc.Tokens)
		for _, pair := range pairs[i] {
			row := make([]float32, 2*hidden)
			for half, span := range []document.EntitySpan{pair.Head, pair.Tail} {
				if span.Start < 0 || span.End > len(vectors) || span.Start >= span.End {
					return nil, nil, fmt.Errorf("document %d: span [%d, %d) outside %d tokens", i, span.Start, span.End, len(vectors))
				}
				poolSpan(row[half*hidden:(half+1)*hidden], vectors[span.Start:span.End])
				ctx.refs = append(ctx.refs, spanRef{doc: i, start: span.Start, end: span.End, row: len(rows), half: half})
			}
			rows = append(rows, row)
		}
	}
	return rows, ctx, nil
}

// poolSpan writes the token-axis mean of vectors into dst.
func poolSpan(dst []float32, vectors [][]float32) {
	for _, vector := range vectors {
		for k, v := range vector {
			dst[k] += v
		}
	}
	n := float32(len(vectors))
	for k := range dst {
		dst[k] /= n
	}
}

// Backward splits the pair-matrix gradient back into per-token gradients.
// Each span occurrence spreads its pooled gradient evenly over its tokens;
// a token covered by several occurrences receives the mean of its
// contributions. Tokens outside every pooled span stay zero.
func (TensorBuilder) Backward(ctx *PoolContext, grad [][]float32) ([][][]float32, error) {
	out := make([][][]float32, len(ctx.docTokens))
	counts := make([][]float32, len(ctx.docTokens))
	for i, n := range ctx.docTokens {
		out[i] = make([][]float32, n)
		for t := range out[i] {
			out[i][t] = make([]float32, ctx.hidden)
		}
		counts[i] = make([]float32, n)
	}
	for _, ref := range ctx.refs {
		if ref.row >= len(grad) {
			return nil, fmt.Errorf("gradient has %d rows, span reference needs row %d", len(grad), ref.row)
		}
		row := grad[ref.row]
		if len(row) != 2*ctx.hidden {
			return nil, fmt.Errorf("gradient row %d has width %d, want %d", ref.row, len(row), 2*ctx.hidden)
		}
		half := row[ref.half*ctx.hidden : (ref.half+1)*ctx.hidden]
		spanLen := float32(ref.end - ref.start)
		for t := ref.start; t < ref.end; t++ {
			for k, g := range half {
				out[ref.doc][t][k] += g / spanLen
			}
			counts[ref.doc][t]++
		}
	}
	for i := range out {
		for t := range out[i] {
			div := counts[i][t] + gradEpsilon
			for k := range out[i][t] {
				out[i][t][k] /= div
			}
		}
	}
	return out, nil
}
