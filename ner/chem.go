package ner

import (
	"fmt"

	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/util"
)

// Label indices of the chemical NER head: B-CHEM, I-CHEM, O.
const (
	chemLabelBegin  = 0
	chemLabelInside = 1
)

// ChemStage recognizes chemical compound mentions with a BERT token
// classification model run on the pure Go ONNX backend.
type ChemStage struct {
	model *onnxModel
}

func NewChemStage(modelDir string) (*ChemStage, error) {
	model, err := loadONNXModel(modelDir)
	if err != nil {
		return nil, fmt.Errorf("chem ner: %w", err)
	}
	return &ChemStage{model: model}, nil
}

func (s *ChemStage) Name() string {
	return "chem-ner"
}

// charSpan is a model prediction in character space, before alignment
// with the document tokens.
type charSpan struct {
	start int
	end   int
}

func (s *ChemStage) Annotate(doc *document.Document) error {
	if doc.Text == "" {
		return nil
	}
	encoding, err := s.model.encode(doc.Text)
	if err != nil {
		return err
	}
	logits, shape, err := s.model.run(encoding)
	if err != nil {
		return err
	}
	if len(shape) != 3 {
		return fmt.Errorf("chem ner: expected 3D logits, got shape %v", shape)
	}
	numLabels := shape[2]

	var predictions []charSpan
	for j := 0; j < shape[1] && j < len(encoding.Offsets); j++ {
		if encoding.SpecialTokenMask[j] > 0 {
			continue
		}
		scores := util.SoftMax(logits[j*numLabels : (j+1)*numLabels])
		labelIdx, _, argErr := util.ArgMax(scores)
		if argErr != nil {
			return argErr
		}
		offset := encoding.Offsets[j]
		switch {
		case labelIdx == chemLabelBegin:
			predictions = append(predictions, charSpan{start: offset[0], end: offset[1]})
		case labelIdx == chemLabelInside && len(predictions) > 0:
			predictions[len(predictions)-1].end = offset[1]
		}
	}

	var spans []document.EntitySpan
	claimed := map[int]bool{}
	for _, pred := range predictions {
		start, end, found := doc.TokenRange(pred.start, pred.end)
		if !found {
			continue
		}
		free := true
		for i := start; i < end; i++ {
			if claimed[i] || doc.Claimed(i) {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := start; i < end; i++ {
			claimed[i] = true
		}
		span := document.EntitySpan{
			Start:     start,
			End:       end,
			Label:     document.LabelChem,
			CharStart: doc.Tokens[start].Start,
			CharEnd:   doc.Tokens[end-1].End(),
		}
		span.Text = doc.SpanText(span)
		spans = append(spans, span)
	}
	doc.AddEntities(spans...)
	return nil
}
