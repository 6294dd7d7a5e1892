// Package corpus persists annotated documents as line-delimited JSON and
// imports annotation-tool exports into the document model.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/ner"
	"github.com/knights-analytics/chemrex/util"
)

// SaveDocuments writes one document per line.
func SaveDocuments(path string, docs []*document.Document) error {
	writer, err := util.NewFileWriter(path, "application/jsonl")
	if err != nil {
		return err
	}
	for _, doc := range docs {
		line, err := jsoniter.Marshal(doc)
		if err != nil {
			return errors.Join(err, writer.Close())
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return errors.Join(err, writer.Close())
		}
	}
	return writer.Close()
}

// LoadDocuments reads a line-per-document corpus file.
func LoadDocuments(path string) ([]*document.Document, error) {
	file, err := util.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var docs []*document.Document
	reader := bufio.NewReader(file)
	for {
		line, err := util.ReadLine(reader)
		if len(line) > 0 {
			doc := &document.Document{}
			if err := jsoniter.Unmarshal(line, doc); err != nil {
				return nil, fmt.Errorf("decoding corpus line %d: %w", len(docs)+1, err)
			}
			docs = append(docs, doc)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, err
		}
	}
}

// FilterDocument reports whether doc is a useful relation-extraction
// example: it must carry a property span whose allowed units match one of
// the document's quantity spans. A property sub-type without a registered
// unit constraint matches any quantity.
func FilterDocument(doc *document.Document) bool {
	var quantities []document.EntitySpan
	for _, ent := range doc.Ents {
		if !document.IsHeadLabel(ent.Label) {
			quantities = append(quantities, ent)
		}
	}
	if len(quantities) == 0 {
		return false
	}
	for _, ent := range doc.Ents {
		if ent.Label != document.LabelProp && ent.Label != document.LabelFormula {
			continue
		}
		units, ok := ner.PropertyToUnits[ent.SubType]
		if !ok || len(units) == 0 {
			return true
		}
		for _, unit := range units {
			for _, quantity := range quantities {
				if quantity.Label == unit {
					return true
				}
			}
		}
	}
	return false
}
