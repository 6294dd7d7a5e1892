package document

import jsoniter "github.com/json-iterator/go"

// RelationEntry is one scored (head, tail) candidate, keyed by the start
// token offsets of the two spans, with one probability per relation label.
type RelationEntry struct {
	Head  int                `json:"head"`
	Tail  int                `json:"tail"`
	Probs map[string]float32 `json:"probs"`
}

// RelationMatrix is the sparse scored-pair output of the relation
// classifier. Only pairs produced by the instance generator are present;
// absent pairs have probability zero for every label. Entry order is the
// generation order and downstream consumers rely on it.
type RelationMatrix struct {
	entries []RelationEntry
	index   map[[2]int]int
}

func NewRelationMatrix() *RelationMatrix {
	return &RelationMatrix{index: map[[2]int]int{}}
}

// Set records the probability for label of the (head, tail) pair, creating
// the entry on first use. Entry order is first-set order.
func (m *RelationMatrix) Set(head, tail int, label string, prob float32) {
	key := [2]int{head, tail}
	i, ok := m.index[key]
	if !ok {
		i = len(m.entries)
		m.entries = append(m.entries, RelationEntry{Head: head, Tail: tail, Probs: map[string]float32{}})
		m.index[key] = i
	}
	m.entries[i].Probs[label] = prob
}

// Get returns the label probabilities stored for the (head, tail) pair.
func (m *RelationMatrix) Get(head, tail int) (map[string]float32, bool) {
	i, ok := m.index[[2]int{head, tail}]
	if !ok {
		return nil, false
	}
	return m.entries[i].Probs, true
}

// Entries returns the stored entries in insertion order.
func (m *RelationMatrix) Entries() []RelationEntry {
	return m.entries
}

func (m *RelationMatrix) Len() int {
	return len(m.entries)
}

// The matrix serializes as the ordered entry list: JSON cannot key an
// object on an integer pair and the stored order matters for assembly.

func (m *RelationMatrix) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(m.entries)
}

func (m *RelationMatrix) UnmarshalJSON(data []byte) error {
	var entries []RelationEntry
	if err := jsoniter.Unmarshal(data, &entries); err != nil {
		return err
	}
	m.entries = entries
	m.index = make(map[[2]int]int, len(entries))
	for i, e := range entries {
		m.index[[2]int{e.Head, e.Tail}] = i
	}
	return nil
}
