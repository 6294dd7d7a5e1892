package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/knights-analytics/chemrex/document"
)

// TEI element skeleton, limited to the parts of GROBID's output the
// pipeline consumes.
type teiDocument struct {
	Header struct {
		FileDesc struct {
			Titles []struct {
				Type string `xml:"type,attr"`
				Text string `xml:",chardata"`
			} `xml:"titleStmt>title"`
			BiblStruct struct {
				Authors []struct {
					Forenames []string `xml:"persName>forename"`
					Surname   string   `xml:"persName>surname"`
				} `xml:"analytic>author"`
				Idnos []struct {
					Type string `xml:"type,attr"`
					Text string `xml:",chardata"`
				} `xml:"idno"`
				Date struct {
					When string `xml:"when,attr"`
				} `xml:"monogr>imprint>date"`
			} `xml:"sourceDesc>biblStruct"`
		} `xml:"fileDesc"`
		Abstract struct {
			Divs []teiDiv `xml:"div"`
		} `xml:"profileDesc>abstract"`
	} `xml:"teiHeader"`
	Body struct {
		Divs    []teiDiv    `xml:"div"`
		Figures []teiFigure `xml:"figure"`
	} `xml:"text>body"`
}

type teiDiv struct {
	Head       mixedText `xml:"head"`
	Paragraphs []teiPara `xml:"p"`
}

type teiPara struct {
	Sentences []mixedText `xml:"s"`
	Raw       string      `xml:",innerxml"`
}

type teiFigure struct {
	Type  string    `xml:"type,attr"`
	Head  mixedText `xml:"head"`
	Desc  teiPara   `xml:"figDesc"`
	Table struct {
		Rows []struct {
			Cells []mixedText `xml:"cell"`
		} `xml:"row"`
	} `xml:"table"`
}

// mixedText flattens an element's character data including text nested in
// child elements such as citation refs.
type mixedText struct {
	Raw string `xml:",innerxml"`
}

func (t mixedText) String() string {
	decoder := xml.NewDecoder(bytes.NewReader([]byte(t.Raw)))
	var b strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if data, ok := token.(xml.CharData); ok {
			b.Write(data)
		}
	}
	return cleanText(b.String())
}

// cleanText repairs glyphs the PDF text extraction maps wrongly and
// normalizes whitespace.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "À", "-")
	text = strings.ReplaceAll(text, "¼", "=")
	return strings.Join(strings.Fields(text), " ")
}

// ParseTEI converts GROBID TEI XML into an article.
func ParseTEI(data []byte) (*document.Article, error) {
	var tei teiDocument
	if err := xml.Unmarshal(data, &tei); err != nil {
		return nil, fmt.Errorf("decoding TEI: %w", err)
	}
	article := &document.Article{}
	for _, title := range tei.Header.FileDesc.Titles {
		if title.Type == "main" {
			article.Title = cleanText(title.Text)
			break
		}
	}
	for _, idno := range tei.Header.FileDesc.BiblStruct.Idnos {
		if idno.Type == "DOI" {
			article.DOI = strings.TrimSpace(idno.Text)
			break
		}
	}
	article.PubDate = tei.Header.FileDesc.BiblStruct.Date.When
	for _, author := range tei.Header.FileDesc.BiblStruct.Authors {
		name := strings.TrimSpace(strings.Join(append(author.Forenames, author.Surname), " "))
		if name != "" {
			article.Authors = append(article.Authors, name)
		}
	}
	for _, div := range tei.Header.Abstract.Divs {
		for _, paragraph := range div.Paragraphs {
			if sentences := paragraph.sentences(); len(sentences) > 0 {
				article.Abstract = append(article.Abstract, sentences)
			}
		}
	}
	for _, div := range tei.Body.Divs {
		section := document.Section{Heading: div.Head.String()}
		for _, paragraph := range div.Paragraphs {
			if sentences := paragraph.sentences(); len(sentences) > 0 {
				section.Paragraphs = append(section.Paragraphs, sentences)
			}
		}
		if section.Heading != "" || len(section.Paragraphs) > 0 {
			article.Sections = append(article.Sections, section)
		}
	}
	for _, figure := range tei.Body.Figures {
		if figure.Type != "table" {
			continue
		}
		table := document.Table{Heading: figure.Head.String()}
		if sentences := figure.Desc.sentences(); len(sentences) > 0 {
			table.Description = append(table.Description, sentences)
		}
		for _, row := range figure.Table.Rows {
			cells := make([]string, len(row.Cells))
			for i, cell := range row.Cells {
				cells[i] = cell.String()
			}
			table.Rows = append(table.Rows, cells)
		}
		article.Tables = append(article.Tables, table)
	}
	return article, nil
}

// sentences returns the paragraph's sentence texts. Output produced
// without sentence segmentation yields the whole paragraph as one
// sentence.
func (p teiPara) sentences() []string {
	if len(p.Sentences) > 0 {
		out := make([]string, 0, len(p.Sentences))
		for _, sentence := range p.Sentences {
			if text := sentence.String(); text != "" {
				out = append(out, text)
			}
		}
		return out
	}
	if text := (mixedText{Raw: p.Raw}).String(); text != "" {
		return []string{text}
	}
	return nil
}
