package relation

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gorgonia.org/tensor"

	"github.com/knights-analytics/chemrex/util"
)

// Classifier scores pair-feature vectors into per-label relation
// probabilities: one affine transform followed by an independent sigmoid
// per label. Labels are not mutually exclusive.
type Classifier struct {
	Labels []string
	weight *tensor.Dense
	bias   []float32
}

// classifierFile is the serialized parameter layout: a row-major weight
// matrix of shape (2 x hidden, labels) and one bias per label.
type classifierFile struct {
	Labels []string  `json:"labels"`
	Width  int       `json:"width"`
	Weight []float32 `json:"weight"`
	Bias   []float32 `json:"bias"`
}

// NewClassifier builds a classifier from its raw parameters. weight is
// row-major with one row per input feature and one column per label.
func NewClassifier(labels []string, width int, weight, bias []float32) (*Classifier, error) {
	if len(weight) != width*len(labels) {
		return nil, fmt.Errorf("weight has %d values, want %d (%d features x %d labels)",
			len(weight), width*len(labels), width, len(labels))
	}
	if len(bias) != len(labels) {
		return nil, fmt.Errorf("bias has %d values for %d labels", len(bias), len(labels))
	}
	dense := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(width, len(labels)), tensor.WithBacking(weight))
	return &Classifier{Labels: labels, weight: dense, bias: bias}, nil
}

// LoadClassifier reads serialized classifier parameters.
func LoadClassifier(data []byte) (*Classifier, error) {
	var file classifierFile
	if err := jsoniter.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("reading relation classifier: %w", err)
	}
	return NewClassifier(file.Labels, file.Width, file.Weight, file.Bias)
}

// Marshal serializes the classifier parameters.
func (c *Classifier) Marshal() ([]byte, error) {
	return jsoniter.Marshal(classifierFile{
		Labels: c.Labels,
		Width:  c.Width(),
		Weight: c.weight.Data().([]float32),
		Bias:   c.bias,
	})
}

// Width returns the expected pair-feature width.
func (c *Classifier) Width() int {
	return c.weight.Shape()[0]
}

// Score maps pair-feature rows to one probability per label and row. An
// empty input yields an empty output.
func (c *Classifier) Score(rows [][]float32) ([][]float32, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := c.Width()
	backing := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("pair vector %d has width %d, want %d", i, len(row), width)
		}
		backing = append(backing, row...)
	}
	input := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(len(rows), width), tensor.WithBacking(backing))
	logits, err := tensor.MatMul(input, c.weight)
	if err != nil {
		return nil, fmt.Errorf("scoring pair vectors: %w", err)
	}
	data := logits.Data().([]float32)
	labels := len(c.Labels)
	probs := make([][]float32, len(rows))
	for i := range probs {
		row := make([]float32, labels)
		copy(row, data[i*labels:(i+1)*labels])
		for j := range row {
			row[j] += c.bias[j]
		}
		probs[i] = util.Sigmoid(row)
	}
	return probs, nil
}
