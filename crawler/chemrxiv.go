// Package crawler fetches preprint metadata and PDFs from the ChemRxiv
// public API, politely rate-limited and resumable.
package crawler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/knights-analytics/chemrex/util"
)

// DefaultBaseURL is the ChemRxiv public API root.
const DefaultBaseURL = "https://chemrxiv.org/engage/chemrxiv/public-api/v1"

const pageSize = 50

// Metadata is the subset of a preprint's API record the pipeline keeps.
type Metadata struct {
	ID       string   `json:"id"`
	DOI      string   `json:"doi"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	PDF      string   `json:"pdf,omitempty"`
}

// Crawler pages through the preprint listing. One request every two
// seconds keeps the crawl within the API's comfort zone.
type Crawler struct {
	BaseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

func New(logger *log.Logger) *Crawler {
	return &Crawler{
		BaseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		logger:  logger,
	}
}

type itemsResponse struct {
	TotalCount int `json:"totalCount"`
	ItemHits   []struct {
		Item struct {
			ID       string `json:"id"`
			DOI      string `json:"doi"`
			Title    string `json:"title"`
			Abstract string `json:"abstract"`
			Authors  []struct {
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
			} `json:"authors"`
			Asset struct {
				Original struct {
					URL string `json:"url"`
				} `json:"original"`
			} `json:"asset"`
		} `json:"item"`
	} `json:"itemHits"`
}

// Items lists preprint metadata starting at skip, at most limit records.
// limit zero means everything the API has.
func (c *Crawler) Items(ctx context.Context, skip, limit int) ([]Metadata, error) {
	var out []Metadata
	for {
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		page, total, err := c.page(ctx, skip)
		if err != nil {
			return out, err
		}
		if len(page) == 0 {
			return out, nil
		}
		out = append(out, page...)
		skip += len(page)
		if skip >= total {
			return out, nil
		}
	}
}

func (c *Crawler) page(ctx context.Context, skip int) ([]Metadata, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("skip", strconv.Itoa(skip))
	body, err := c.get(ctx, c.BaseURL+"/items?"+query.Encode())
	if err != nil {
		return nil, 0, fmt.Errorf("listing preprints at offset %d: %w", skip, err)
	}
	var response itemsResponse
	if err := jsoniter.Unmarshal(body, &response); err != nil {
		return nil, 0, fmt.Errorf("decoding preprint listing: %w", err)
	}
	page := make([]Metadata, 0, len(response.ItemHits))
	for _, hit := range response.ItemHits {
		meta := Metadata{
			ID:       hit.Item.ID,
			DOI:      hit.Item.DOI,
			Title:    hit.Item.Title,
			Abstract: hit.Item.Abstract,
			PDF:      hit.Item.Asset.Original.URL,
		}
		for _, author := range hit.Item.Authors {
			meta.Authors = append(meta.Authors, author.FirstName+" "+author.LastName)
		}
		page = append(page, meta)
	}
	return page, response.TotalCount, nil
}

func (c *Crawler) get(ctx context.Context, rawURL string) (body []byte, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, response.Body.Close())
	}()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	return io.ReadAll(response.Body)
}

// SaveMetadata writes one JSON record per line.
func SaveMetadata(path string, items []Metadata) error {
	writer, err := util.NewFileWriter(path, "application/jsonl")
	if err != nil {
		return err
	}
	for _, item := range items {
		line, err := jsoniter.Marshal(item)
		if err != nil {
			return errors.Join(err, writer.Close())
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return errors.Join(err, writer.Close())
		}
	}
	return writer.Close()
}

// LoadMetadata reads a line-per-record metadata file written by
// SaveMetadata.
func LoadMetadata(path string) ([]Metadata, error) {
	file, err := util.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var items []Metadata
	reader := bufio.NewReader(file)
	for {
		line, err := util.ReadLine(reader)
		if len(line) > 0 {
			var item Metadata
			if err := jsoniter.Unmarshal(line, &item); err != nil {
				return nil, fmt.Errorf("decoding metadata line %d: %w", len(items)+1, err)
			}
			items = append(items, item)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return items, nil
			}
			return nil, err
		}
	}
}

// DownloadPDFs fetches the PDF of every record into dir, skipping files
// already present so an interrupted run resumes where it stopped.
func (c *Crawler) DownloadPDFs(ctx context.Context, items []Metadata, dir string) error {
	if err := util.CreateDir(dir); err != nil {
		return err
	}
	for _, item := range items {
		if item.PDF == "" || item.ID == "" {
			continue
		}
		target := util.PathJoinSafe(dir, item.ID+".pdf")
		exists, err := util.FileExists(target)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		data, err := c.get(ctx, item.PDF)
		if err != nil {
			c.logger.Warn().Err(err).Str("id", item.ID).Msg("pdf download failed")
			continue
		}
		if err := util.WriteFileBytes(target, data); err != nil {
			return err
		}
		c.logger.Info().Str("id", item.ID).Msg("downloaded pdf")
	}
	return nil
}
