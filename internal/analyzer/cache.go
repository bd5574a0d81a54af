package analyzer

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/mvp-joe/featurescan/internal/feature"
	"github.com/mvp-joe/featurescan/internal/parse"
)

// DefaultCacheSize is the number of scanned documents kept in memory.
const DefaultCacheSize = 512

// scannedDocument is everything derived from one version of a document's
// contents. It is immutable once cached.
type scannedDocument struct {
	url      string
	hash     [sha256.Size]byte
	imports  []parse.Import
	features []feature.Scanned
	warnings []diag.Warning
	release  func()
}

// documentCache keeps scanned documents keyed by URL. An entry is reused only
// while the contents hash it was built from still matches.
type documentCache struct {
	lru *lru.Cache[string, *scannedDocument]
}

func newDocumentCache(size int) (*documentCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.NewWithEvict(size, func(_ string, doc *scannedDocument) {
		if doc.release != nil {
			doc.release()
		}
	})
	if err != nil {
		return nil, err
	}
	return &documentCache{lru: c}, nil
}

func contentHash(contents []byte) [sha256.Size]byte {
	return sha256.Sum256(contents)
}

// get returns the cached document if it was built from identical contents.
func (c *documentCache) get(url string, hash [sha256.Size]byte) (*scannedDocument, bool) {
	doc, ok := c.lru.Get(url)
	if !ok || doc.hash != hash {
		return nil, false
	}
	return doc, true
}

// put stores a document, releasing any previous version for the same URL.
func (c *documentCache) put(doc *scannedDocument) {
	if old, ok := c.lru.Peek(doc.url); ok && old != doc {
		c.lru.Remove(doc.url)
	}
	c.lru.Add(doc.url, doc)
}

func (c *documentCache) invalidate(url string) {
	c.lru.Remove(url)
}

func (c *documentCache) len() int {
	return c.lru.Len()
}

func (c *documentCache) purge() {
	c.lru.Purge()
}
