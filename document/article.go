package document

// Article is the structured output of the document-layout service for one
// parsed PDF. Abstract and section text is grouped as paragraphs of
// sentences.
type Article struct {
	DOI      string     `json:"doi"`
	Title    string     `json:"title"`
	Authors  []string   `json:"authors,omitempty"`
	PubDate  string     `json:"pubDate,omitempty"`
	Abstract [][]string `json:"abstract,omitempty"`
	Sections []Section  `json:"sections,omitempty"`
	Tables   []Table    `json:"tables,omitempty"`
}

// Section is a headed block of article text.
type Section struct {
	Heading    string     `json:"heading"`
	Paragraphs [][]string `json:"paragraphs,omitempty"`
}

// Table is a parsed article table: heading, caption paragraphs and the
// raw cell grid.
type Table struct {
	Heading     string     `json:"heading"`
	Description [][]string `json:"description,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
}

// SentenceContext is one article sentence tagged with the section it was
// found in.
type SentenceContext struct {
	Text    string
	Section string
}

// Sentences flattens the article into its ordered sentences with section
// context labels. The abstract is labelled "Abstract".
func (a *Article) Sentences() []SentenceContext {
	var out []SentenceContext
	for _, paragraph := range a.Abstract {
		for _, sentence := range paragraph {
			out = append(out, SentenceContext{Text: sentence, Section: "Abstract"})
		}
	}
	for _, section := range a.Sections {
		for _, paragraph := range section.Paragraphs {
			for _, sentence := range paragraph {
				out = append(out, SentenceContext{Text: sentence, Section: section.Heading})
			}
		}
	}
	return out
}
