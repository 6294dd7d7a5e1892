package ner

import (
	"slices"
	"strings"

	"github.com/knights-analytics/chemrex/document"
)

// RulerStage tags property and formula mentions by matching token
// patterns, the rule-based counterpart to the model stages.
type RulerStage struct {
	patterns []Pattern
}

func NewRulerStage(patterns []Pattern) *RulerStage {
	return &RulerStage{patterns: patterns}
}

func (s *RulerStage) Name() string {
	return "property-ruler"
}

func (s *RulerStage) Annotate(doc *document.Document) error {
	var spans []document.EntitySpan
	claimed := map[int]bool{}
	for start := range doc.Tokens {
		if claimed[start] || doc.Claimed(start) {
			continue
		}
		pattern, end, ok := s.matchAt(doc, start)
		if !ok {
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
			Label:     pattern.Label,
			SubType:   pattern.SubType,
			CharStart: doc.Tokens[start].Start,
			CharEnd:   doc.Tokens[end-1].End(),
		}
		span.Text = doc.SpanText(span)
		spans = append(spans, span)
	}
	doc.AddEntities(spans...)
	return nil
}

// matchAt tries every pattern at token position start and returns the
// longest match.
func (s *RulerStage) matchAt(doc *document.Document, start int) (Pattern, int, bool) {
	var best Pattern
	bestEnd := -1
	for _, pattern := range s.patterns {
		if end, ok := matchPattern(doc, pattern, start); ok && end > bestEnd {
			best = pattern
			bestEnd = end
		}
	}
	if bestEnd < 0 {
		return Pattern{}, 0, false
	}
	return best, bestEnd, true
}

func matchPattern(doc *document.Document, pattern Pattern, start int) (int, bool) {
	pos := start
	matchedAny := false
	for _, matcher := range pattern.Tokens {
		if pos < len(doc.Tokens) && matchToken(matcher, doc.Tokens[pos].Text) {
			pos++
			matchedAny = true
			continue
		}
		if matcher.Optional {
			continue
		}
		return 0, false
	}
	if !matchedAny || pos == start {
		return 0, false
	}
	return pos, true
}

func matchToken(matcher TokenMatcher, tok string) bool {
	if matcher.Text != "" {
		return tok == matcher.Text
	}
	if len(matcher.Lower) > 0 {
		return slices.Contains(matcher.Lower, strings.ToLower(tok))
	}
	return false
}
