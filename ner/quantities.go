package ner

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/phuslu/log"

	"github.com/knights-analytics/chemrex/document"
)

const DefaultQuantitiesURL = "http://localhost:8060"

// QuantitiesStage recognizes quantity entities (values with units) by
// calling a grobid-quantities service and aligning its measurements with
// the document tokens.
type QuantitiesStage struct {
	baseURL string
	client  *http.Client
}

func NewQuantitiesStage(baseURL string) *QuantitiesStage {
	if baseURL == "" {
		baseURL = DefaultQuantitiesURL
	}
	return &QuantitiesStage{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *QuantitiesStage) Name() string {
	return "quantities"
}

type measurementsResponse struct {
	Measurements []Measurement `json:"measurements"`
}

// Measurement mirrors the grobid-quantities measurement schema, limited
// to the fields the stage consumes.
type Measurement struct {
	Type               string     `json:"type"`
	MeasurementRaw     string     `json:"measurementRaw"`
	MeasurementOffsets *Offsets   `json:"measurementOffsets"`
	Quantity           *Quantity  `json:"quantity"`
	QuantityMost       *Quantity  `json:"quantityMost"`
	QuantityLeast      *Quantity  `json:"quantityLeast"`
	Quantities         []Quantity `json:"quantities"`
}

type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Quantity struct {
	Type    string `json:"type"`
	RawUnit *Unit  `json:"rawUnit"`
}

type Unit struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (s *QuantitiesStage) Annotate(doc *document.Document) error {
	measurements, err := s.processText(doc.Text)
	if err != nil {
		return err
	}
	var spans []document.EntitySpan
	claimed := map[int]bool{}
	for _, measure := range measurements {
		charStart, charEnd, label, ok := ParseMeasurement(measure, doc.Text)
		if !ok {
			continue
		}
		start, end, found := doc.TokenRange(charStart, charEnd)
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
			Label:     label,
			CharStart: doc.Tokens[start].Start,
			CharEnd:   doc.Tokens[end-1].End(),
		}
		span.Text = doc.SpanText(span)
		spans = append(spans, span)
	}
	doc.AddEntities(spans...)
	return nil
}

func (s *QuantitiesStage) processText(text string) ([]Measurement, error) {
	form := url.Values{}
	form.Set("text", text)
	resp, err := s.client.PostForm(s.baseURL+"/service/processQuantityText", form)
	if err != nil {
		return nil, fmt.Errorf("quantities service request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("closing quantities response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		// 204 means no measurements in the text.
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		return nil, fmt.Errorf("quantities service returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed measurementsResponse
	if err := jsoniter.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding quantities response: %w", err)
	}
	return parsed.Measurements, nil
}

// ParseMeasurement extracts the character range and quantity label of a
// measurement. ok is false when the measurement has no offsets or no
// usable unit label.
func ParseMeasurement(measure Measurement, docText string) (start, end int, label string, ok bool) {
	if measure.MeasurementOffsets == nil {
		return 0, 0, "", false
	}
	start, end = FixOffsetsForSpecialChars(
		docText,
		measure.MeasurementOffsets.Start,
		measure.MeasurementOffsets.End,
		measure.MeasurementRaw,
	)

	var quantity *Quantity
	switch {
	case measure.Type == "value" && measure.Quantity != nil:
		quantity = measure.Quantity
	case measure.Type == "interval" && measure.QuantityMost != nil:
		quantity = measure.QuantityMost
	case measure.Type == "interval" && measure.QuantityLeast != nil:
		quantity = measure.QuantityLeast
	case measure.Type == "listc" && len(measure.Quantities) > 0:
		quantity = &measure.Quantities[0]
	}
	if quantity == nil {
		return 0, 0, "", false
	}

	switch {
	case quantity.Type != "":
		label = strings.ToUpper(quantity.Type)
	case quantity.RawUnit != nil && quantity.RawUnit.Type != "":
		label = strings.ToUpper(quantity.RawUnit.Type)
	case quantity.RawUnit != nil && quantity.RawUnit.Name != "":
		switch quantity.RawUnit.Name {
		case "%":
			label = "PERCENT"
		case "mL":
			label = "VOLUME"
		case "• C":
			label = "TEMPERATURE"
		default:
			label = strings.ToUpper(quantity.RawUnit.Name)
		}
	default:
		return 0, 0, "", false
	}
	return start, end, label, true
}

// FixOffsetsForSpecialChars compensates for special characters the
// quantities service strips from its input, which shifts its reported
// offsets relative to the document text. The range is slid left until the
// raw measurement string lines up.
func FixOffsetsForSpecialChars(docText string, start, end int, raw string) (int, int) {
	s, e := start, end
	for s > 0 && !rangeEquals(docText, s, e, raw) {
		s--
		e--
	}
	if rangeEquals(docText, s, e, raw) {
		return s, e
	}
	return start, end
}

func rangeEquals(text string, start, end int, raw string) bool {
	if start < 0 || end > len(text) || start > end {
		return false
	}
	return text[start:end] == raw
}
