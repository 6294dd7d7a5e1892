package corpus

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/relation"
)

// HasValueLabel is the relation label the annotation tool uses for a
// property-or-chemical to value link.
const HasValueLabel = "has_value"

// skippedRelationLabel marks annotation edges that are not value links
// and stay out of the training matrix.
const skippedRelationLabel = "Has Param"

// TokenizeFunc cuts text into offset-preserving tokens. Callers inject
// their tokenizer of choice; document.WhitespaceTokens is the fallback.
type TokenizeFunc func(text string) []document.Token

type labelStudioTask struct {
	Data struct {
		Text    string `json:"text"`
		Title   string `json:"title"`
		DOI     string `json:"doi"`
		Section string `json:"section"`
	} `json:"data"`
	Annotations []struct {
		Result []labelStudioResult `json:"result"`
	} `json:"annotations"`
}

type labelStudioResult struct {
	ID     string   `json:"id,omitempty"`
	Type   string   `json:"type"`
	FromID string   `json:"from_id,omitempty"`
	ToID   string   `json:"to_id,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Value  struct {
		Start  int      `json:"start"`
		End    int      `json:"end"`
		Text   string   `json:"text"`
		Labels []string `json:"labels"`
	} `json:"value"`
}

// ImportTasks converts an annotation-tool export into training documents.
// Every annotated span becomes an entity span; the relation matrix is
// densified over all candidate pairs with probability zero and annotated
// value links overlaid at probability one, so absent edges are explicit
// negatives during training.
func ImportTasks(data []byte, tokenize TokenizeFunc) ([]*document.Document, error) {
	if tokenize == nil {
		tokenize = document.WhitespaceTokens
	}
	var tasks []labelStudioTask
	if err := jsoniter.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decoding annotation export: %w", err)
	}
	generator := relation.InstanceGenerator{}
	var docs []*document.Document
	for i, task := range tasks {
		doc := document.New(task.Data.Text, tokenize(task.Data.Text))
		doc.Title = task.Data.Title
		doc.DOI = task.Data.DOI
		doc.Section = task.Data.Section
		if len(task.Annotations) == 0 {
			docs = append(docs, doc)
			continue
		}
		spanStarts := map[string]int{}
		results := task.Annotations[0].Result
		for _, result := range results {
			if result.Type != "labels" || len(result.Value.Labels) == 0 {
				continue
			}
			start, end, ok := doc.TokenRange(result.Value.Start, result.Value.End)
			if !ok {
				return nil, fmt.Errorf("task %d: span [%d, %d) covers no token", i, result.Value.Start, result.Value.End)
			}
			label, subType := splitLabel(result.Value.Labels[0])
			doc.AddEntities(document.EntitySpan{
				Start:     start,
				End:       end,
				Label:     label,
				SubType:   subType,
				Text:      result.Value.Text,
				CharStart: result.Value.Start,
				CharEnd:   result.Value.End,
			})
			spanStarts[result.ID] = start
		}
		matrix := document.NewRelationMatrix()
		for _, pair := range generator.Pairs(doc) {
			matrix.Set(pair.Head.Start, pair.Tail.Start, HasValueLabel, 0)
		}
		for _, result := range results {
			if result.Type != "relation" {
				continue
			}
			if len(result.Labels) > 0 && result.Labels[0] == skippedRelationLabel {
				continue
			}
			head, okHead := spanStarts[result.FromID]
			tail, okTail := spanStarts[result.ToID]
			if !okHead || !okTail {
				continue
			}
			matrix.Set(head, tail, HasValueLabel, 1)
		}
		doc.Relation = matrix
		docs = append(docs, doc)
	}
	return docs, nil
}

// splitLabel separates a "PROP:enthalpy" style annotation label into the
// coarse label and its sub-type id.
func splitLabel(label string) (string, string) {
	for i := range label {
		if label[i] == ':' {
			return label[:i], label[i+1:]
		}
	}
	return label, ""
}
