package pubchem

import (
	"strconv"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds resolved compound records keyed by compound id and a
// synonym index keyed by lower-cased name. Entries never expire within a
// run; the mutex serializes the read-check-then-write sequences so
// concurrent lookups of the same compound do not race.
type Cache struct {
	mu       sync.Mutex
	records  *gocache.Cache
	synonyms *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{
		records:  gocache.New(gocache.NoExpiration, 0),
		synonyms: gocache.New(gocache.NoExpiration, 0),
	}
}

// BySynonym returns the cached record for any known synonym of name,
// matched case-insensitively.
func (c *Cache) BySynonym(name string) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cid, ok := c.synonyms.Get(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	record, ok := c.records.Get(cid.(string))
	if !ok {
		return nil, false
	}
	return record.(*Record), true
}

// Put stores the record and indexes every synonym to it.
func (c *Cache) Put(record *Record, synonyms []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cidKey(record.CID)
	c.records.Set(key, record, gocache.NoExpiration)
	for _, synonym := range synonyms {
		c.synonyms.Set(strings.ToLower(synonym), key, gocache.NoExpiration)
	}
}

func cidKey(cid int) string {
	return strconv.Itoa(cid)
}
