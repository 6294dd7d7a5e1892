package document

// ChemPropValueTuple groups the heads of all qualifying relation edges
// sharing one value (tail) span: the chemicals and properties that the
// value was measured for. A tuple always has exactly one value; it exists
// only if at least one edge pointed at that value.
type ChemPropValueTuple struct {
	Doc        *Document
	Value      EntitySpan
	Properties []EntitySpan
	Chemicals  []EntitySpan
}

// AddHead routes a head span into the chemical or property list.
func (t *ChemPropValueTuple) AddHead(head EntitySpan) {
	if head.Label == LabelChem {
		t.Chemicals = append(t.Chemicals, head)
	} else {
		t.Properties = append(t.Properties, head)
	}
}

// EntityRecord is the exchange serialization of one entity span. Type is
// set for PROP and FORMULA spans only and carries the sub-type id.
type EntityRecord struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type,omitempty"`
}

// TupleRecord is the exchange format for an assembled tuple, consumed by
// export and UI collaborators.
type TupleRecord struct {
	Title      string         `json:"title"`
	DOI        string         `json:"doi"`
	Section    string         `json:"section"`
	Text       string         `json:"text"`
	Value      EntityRecord   `json:"value"`
	Properties []EntityRecord `json:"properties,omitempty"`
	Chemicals  []EntityRecord `json:"chemicals,omitempty"`
}

func entityRecord(span EntitySpan) EntityRecord {
	rec := EntityRecord{
		Text:  span.Text,
		Label: span.Label,
		Start: span.CharStart,
		End:   span.CharEnd,
	}
	if span.Label == LabelProp || span.Label == LabelFormula {
		rec.Type = span.SubType
	}
	return rec
}

// Record converts the tuple to its exchange representation.
func (t *ChemPropValueTuple) Record() TupleRecord {
	rec := TupleRecord{
		Value: entityRecord(t.Value),
	}
	if t.Doc != nil {
		rec.Title = t.Doc.Title
		rec.DOI = t.Doc.DOI
		rec.Section = t.Doc.Section
		rec.Text = t.Doc.Text
	}
	for _, prop := range t.Properties {
		rec.Properties = append(rec.Properties, entityRecord(prop))
	}
	for _, chem := range t.Chemicals {
		rec.Chemicals = append(rec.Chemicals, entityRecord(chem))
	}
	return rec
}
