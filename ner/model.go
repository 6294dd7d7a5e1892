package ner

import (
	"bytes"
	"fmt"

	"github.com/advancedclimatesystems/gonnx"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"gorgonia.org/tensor"

	"github.com/knights-analytics/chemrex/util"
)

const defaultMaxTokens = 512

// onnxModel bundles a gonnx session with its tokenizer, loaded from a
// model directory containing model.onnx and tokenizer.json.
type onnxModel struct {
	session    *gonnx.Model
	tk         *tokenizer.Tokenizer
	inputNames []string
	outputName string
	maxTokens  int
}

func loadONNXModel(modelDir string) (*onnxModel, error) {
	onnxBytes, err := util.ReadFileBytes(util.PathJoinSafe(modelDir, "model.onnx"))
	if err != nil {
		return nil, fmt.Errorf("reading onnx model: %w", err)
	}
	session, err := gonnx.NewModelFromBytes(onnxBytes)
	if err != nil {
		return nil, fmt.Errorf("loading onnx model: %w", err)
	}
	tkBytes, err := util.ReadFileBytes(util.PathJoinSafe(modelDir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("reading tokenizer: %w", err)
	}
	tk, err := pretrained.FromReader(bytes.NewReader(tkBytes))
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	outputNames := session.OutputNames()
	if len(outputNames) == 0 {
		return nil, fmt.Errorf("onnx model has no outputs")
	}
	return &onnxModel{
		session:    session,
		tk:         tk,
		inputNames: session.InputNames(),
		outputName: outputNames[0],
		maxTokens:  defaultMaxTokens,
	}, nil
}

func (m *onnxModel) encode(text string) (*tokenizer.Encoding, error) {
	output, err := m.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, err
	}
	if m.maxTokens > 0 && len(output.Tokens) > m.maxTokens {
		output.Tokens = output.Tokens[:m.maxTokens]
		output.Ids = output.Ids[:min(len(output.Ids), m.maxTokens)]
		output.TypeIds = output.TypeIds[:min(len(output.TypeIds), m.maxTokens)]
		output.AttentionMask = output.AttentionMask[:min(len(output.AttentionMask), m.maxTokens)]
		output.SpecialTokenMask = output.SpecialTokenMask[:min(len(output.SpecialTokenMask), m.maxTokens)]
		output.Offsets = output.Offsets[:min(len(output.Offsets), m.maxTokens)]
	}
	return output, nil
}

// run feeds the encoding through the model as a batch of one and returns
// the first output's backing data and shape.
func (m *onnxModel) run(encoding *tokenizer.Encoding) ([]float32, []int, error) {
	seqLen := len(encoding.Ids)
	inputs := map[string]tensor.Tensor{}
	for _, name := range m.inputNames {
		backing := make([]uint32, seqLen)
		for j := 0; j < seqLen; j++ {
			switch name {
			case "input_ids":
				backing[j] = uint32(encoding.Ids[j])
			case "token_type_ids":
				backing[j] = uint32(encoding.TypeIds[j])
			case "attention_mask":
				backing[j] = uint32(encoding.AttentionMask[j])
			default:
				return nil, nil, fmt.Errorf("input %s not recognized", name)
			}
		}
		inputs[name] = tensor.New(
			tensor.Of(tensor.Uint32),
			tensor.WithShape(1, seqLen),
			tensor.WithBacking(backing),
		)
	}
	outputs, err := m.session.Run(inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("onnx inference failed: %w", err)
	}
	out, ok := outputs[m.outputName]
	if !ok {
		return nil, nil, fmt.Errorf("onnx output %s missing", m.outputName)
	}
	data, ok := out.Data().([]float32)
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 output, got %T", out.Data())
	}
	return data, out.Shape(), nil
}
