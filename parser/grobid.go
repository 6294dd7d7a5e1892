// Package parser turns scientific PDFs into structured articles by way of
// a GROBID document-layout service and its TEI XML output.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/knights-analytics/chemrex/document"
	"github.com/knights-analytics/chemrex/util"
)

// DefaultGrobidURL is where a locally run GROBID service listens.
const DefaultGrobidURL = "http://localhost:8070"

// Client calls a GROBID instance to convert PDFs into TEI XML.
type Client struct {
	BaseURL          string
	SegmentSentences bool
	client           *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:          baseURL,
		SegmentSentences: true,
		client:           &http.Client{Timeout: 5 * time.Minute},
	}
}

// ParsePDF converts the PDF at path into a structured article.
func (c *Client) ParsePDF(path string) (*document.Article, error) {
	pdf, err := util.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer pdf.Close()
	tei, err := c.processFulltext(pdf, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ParseTEI(tei)
}

func (c *Client) processFulltext(pdf io.Reader, name string) (tei []byte, err error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("input", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return nil, err
	}
	if err := form.WriteField("consolidateHeader", "1"); err != nil {
		return nil, err
	}
	if c.SegmentSentences {
		if err := form.WriteField("segmentSentences", "1"); err != nil {
			return nil, err
		}
	}
	if err := form.Close(); err != nil {
		return nil, err
	}
	response, err := c.client.Post(c.BaseURL+"/api/processFulltextDocument", form.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("calling document-layout service: %w", err)
	}
	defer func() {
		err = errors.Join(err, response.Body.Close())
	}()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document-layout service returned status %d", response.StatusCode)
	}
	return io.ReadAll(response.Body)
}
