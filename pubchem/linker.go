// Package pubchem links recognized chemical mentions to PubChem compound
// records through the PUG REST interface, with a process-wide cache keyed
// by compound id and lower-cased synonym.
package pubchem

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/phuslu/log"
)

// DefaultBaseURL is the PubChem PUG REST endpoint.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

var (
	// ErrNotFound means PubChem has no compound for the queried name.
	ErrNotFound = errors.New("compound not found")
	// ErrTimeout means PubChem gave up on the query server-side.
	ErrTimeout = errors.New("compound query timed out")
)

// Record is the property set retrieved for one compound.
type Record struct {
	CID              int    `json:"cid"`
	MolecularFormula string `json:"molecularFormula,omitempty"`
	MolecularWeight  string `json:"molecularWeight,omitempty"`
	CanonicalSMILES  string `json:"canonicalSmiles,omitempty"`
	IUPACName        string `json:"iupacName,omitempty"`
}

// Linker resolves compound names against PubChem. Resolved records and
// synonym mappings are cached for the lifetime of the cache, so repeated
// lookups of any synonym of a known compound stay local.
type Linker struct {
	BaseURL string
	client  *http.Client
	cache   *Cache
	logger  *log.Logger
}

func NewLinker(cache *Cache, logger *log.Logger) *Linker {
	return &Linker{
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

// Link resolves a compound name to its property record. A cached synonym
// short-circuits the network entirely. Failures are never cached, so a
// later call retries.
func (l *Linker) Link(name string) (*Record, error) {
	if record, ok := l.cache.BySynonym(name); ok {
		return record, nil
	}
	record, err := l.fetchProperties(name)
	if err != nil {
		return nil, err
	}
	synonyms, err := l.fetchSynonyms(name)
	if err != nil {
		// The record already resolved, a missing synonym list only
		// costs future cache hits.
		l.logger.Warn().Err(err).Str("compound", name).Msg("synonym lookup failed")
		synonyms = nil
	}
	l.cache.Put(record, append(synonyms, name))
	return record, nil
}

type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int    `json:"CID"`
			MolecularFormula string `json:"MolecularFormula"`
			MolecularWeight  string `json:"MolecularWeight"`
			CanonicalSMILES  string `json:"CanonicalSMILES"`
			IUPACName        string `json:"IUPACName"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

type synonymResponse struct {
	InformationList struct {
		Information []struct {
			CID     int      `json:"CID"`
			Synonym []string `json:"Synonym"`
		} `json:"Information"`
	} `json:"InformationList"`
}

type faultResponse struct {
	Fault struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Fault"`
}

func (l *Linker) fetchProperties(name string) (*Record, error) {
	body, err := l.get(fmt.Sprintf("/compound/name/%s/property/MolecularFormula,MolecularWeight,CanonicalSMILES,IUPACName/JSON",
		url.PathEscape(name)))
	if err != nil {
		return nil, err
	}
	var response propertyResponse
	if err := jsoniter.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding compound properties: %w", err)
	}
	if len(response.PropertyTable.Properties) == 0 {
		return nil, ErrNotFound
	}
	p := response.PropertyTable.Properties[0]
	return &Record{
		CID:              p.CID,
		MolecularFormula: p.MolecularFormula,
		MolecularWeight:  p.MolecularWeight,
		CanonicalSMILES:  p.CanonicalSMILES,
		IUPACName:        p.IUPACName,
	}, nil
}

func (l *Linker) fetchSynonyms(name string) ([]string, error) {
	body, err := l.get(fmt.Sprintf("/compound/name/%s/synonyms/JSON", url.PathEscape(name)))
	if err != nil {
		return nil, err
	}
	var response synonymResponse
	if err := jsoniter.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decoding compound synonyms: %w", err)
	}
	if len(response.InformationList.Information) == 0 {
		return nil, nil
	}
	return response.InformationList.Information[0].Synonym, nil
}

func (l *Linker) get(path string) (body []byte, err error) {
	response, err := l.client.Get(l.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("querying compound database: %w", err)
	}
	defer func() {
		err = errors.Join(err, response.Body.Close())
	}()
	body, err = io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading compound response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		var fault faultResponse
		if jsoniter.Unmarshal(body, &fault) == nil {
			switch {
			case strings.Contains(fault.Fault.Code, "NotFound"):
				return nil, ErrNotFound
			case strings.Contains(fault.Fault.Code, "Timeout"):
				return nil, ErrTimeout
			}
		}
		return nil, fmt.Errorf("compound database returned status %d", response.StatusCode)
	}
	return body, nil
}
