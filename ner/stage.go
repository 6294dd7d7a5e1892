// Package ner contains the annotation stages that recognize chemical,
// property and quantity entities in documents. Stages run in an explicit
// order and must never claim a token already claimed by an earlier stage.
package ner

import (
	"github.com/knights-analytics/chemrex/document"
)

// Stage is one annotation step of the extraction pipeline. Annotate adds
// entity spans to the document in place.
type Stage interface {
	Name() string
	Annotate(doc *document.Document) error
}

// Annotate runs stages over the document in order.
func Annotate(doc *document.Document, stages []Stage) error {
	for _, stage := range stages {
		if err := stage.Annotate(doc); err != nil {
			return err
		}
	}
	return nil
}
