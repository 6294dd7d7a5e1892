// Package document holds the data model shared by the chemrex pipeline:
// tokenized sentences, entity spans, the scored relation matrix and the
// assembled chemical/property/value tuples.
package document

import (
	"strings"
	"unicode"
)

// Entity labels assigned by the recognition stages. Head-like labels may
// point at value-like labels during relation scoring, never the reverse.
const (
	LabelChem    = "CHEM"
	LabelProp    = "PROP"
	LabelFormula = "FORMULA"
	LabelValue   = "VALUE"
)

// IsHeadLabel reports whether label identifies a relation head candidate.
func IsHeadLabel(label string) bool {
	return label == LabelChem || label == LabelProp || label == LabelFormula
}

// Token is a single token of a document with its character offset into the
// document text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
}

func (t Token) End() int {
	return t.Start + len(t.Text)
}

// EntitySpan is a labelled, contiguous token range [Start, End) within a
// document. SubType carries the finer property category for PROP and
// FORMULA spans (e.g. "enthalpy", "density"). Spans are immutable after
// recognition.
type EntitySpan struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Label     string `json:"label"`
	SubType   string `json:"subType,omitempty"`
	Text      string `json:"text"`
	CharStart int    `json:"charStart"`
	CharEnd   int    `json:"charEnd"`
}

// Document is an ordered token sequence with recognition and relation
// extraction results, plus the article context it was cut from.
type Document struct {
	Title    string          `json:"title,omitempty"`
	DOI      string          `json:"doi,omitempty"`
	Section  string          `json:"section,omitempty"`
	Text     string          `json:"text"`
	Tokens   []Token         `json:"tokens"`
	Ents     []EntitySpan    `json:"ents,omitempty"`
	Relation *RelationMatrix `json:"relation,omitempty"`
}

// New creates a document over pre-tokenized text.
func New(text string, tokens []Token) *Document {
	return &Document{Text: text, Tokens: tokens, Relation: NewRelationMatrix()}
}

// NewFromText creates a document by whitespace-splitting text. This is a
// boundary shim for callers without their own tokenization, not a
// linguistic tokenizer: punctuation stays attached to words.
func NewFromText(text string) *Document {
	return New(text, WhitespaceTokens(text))
}

// WhitespaceTokens splits text on unicode whitespace, preserving character
// offsets.
func WhitespaceTokens(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: text[start:i], Start: start})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Start: start})
	}
	return tokens
}

// SpanText returns the document text covered by the token range of span.
func (d *Document) SpanText(span EntitySpan) string {
	if span.Start < 0 || span.End > len(d.Tokens) || span.Start >= span.End {
		return ""
	}
	first := d.Tokens[span.Start]
	last := d.Tokens[span.End-1]
	return strings.TrimSpace(d.Text[first.Start:last.End()])
}

// TokenRange maps a character range onto token indices, returning the
// smallest token interval [start, end) covering it. ok is false when no
// token intersects the range.
func (d *Document) TokenRange(charStart, charEnd int) (start, end int, ok bool) {
	start, end = -1, -1
	for i, tok := range d.Tokens {
		if tok.End() > charStart && start < 0 {
			start = i
		}
		if tok.Start >= charEnd && end < 0 {
			end = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}
	if end < 0 {
		end = len(d.Tokens)
	}
	if end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// Claimed reports whether token index i already belongs to an entity span.
func (d *Document) Claimed(i int) bool {
	for _, ent := range d.Ents {
		if i >= ent.Start && i < ent.End {
			return true
		}
	}
	return false
}

// AddEntities appends spans to the document, skipping any span that covers
// a token already claimed by an earlier recognition stage. A token belongs
// to at most one span.
func (d *Document) AddEntities(spans ...EntitySpan) {
	for _, span := range spans {
		claimed := false
		for i := span.Start; i < span.End; i++ {
			if d.Claimed(i) {
				claimed = true
				break
			}
		}
		if !claimed {
			d.Ents = append(d.Ents, span)
		}
	}
}

// EntityAt returns the entity span starting at token offset start.
func (d *Document) EntityAt(start int) (EntitySpan, bool) {
	for _, ent := range d.Ents {
		if ent.Start == start {
			return ent, true
		}
	}
	return EntitySpan{}, false
}
