package catalog

import (
	"strings"
	"sync"
	"time"
)

// Options combines merge and filter policy for a Catalog.
type Options struct {
	Merge  MergeOptions
	Filter FilterOptions
}

// DefaultOptions dedupes by normalized label and matches on labels only.
func DefaultOptions() Options {
	return Options{Merge: MergeOptions{Dedupe: true}}
}

// Catalog owns the authoritative and generated collections for a session and
// the merged view derived from them.
type Catalog struct {
	opts Options

	mu            sync.RWMutex
	authoritative []Record
	generated     []Record
	view          []Record
	nextSeq       int
	loadedAt      time.Time
}

// New returns an empty catalog.
func New(opts Options) *Catalog {
	return &Catalog{opts: opts, view: []Record{}}
}

// Options returns the policy the catalog was built with.
func (c *Catalog) Options() Options {
	return c.opts
}

// ReplaceAuthoritative swaps in a freshly loaded authoritative collection.
func (c *Catalog) ReplaceAuthoritative(records []Record) {
	cp := make([]Record, len(records))
	for i, rec := range records {
		rec.Origin = OriginAuthoritative
		cp[i] = rec
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = cp
	c.loadedAt = time.Now()
	c.rebuildLocked()
}

// AddGenerated prepends a generated record and returns it as stored. The
// label is trimmed; an empty label is rejected.
func (c *Catalog) AddGenerated(rec Record) (Record, bool) {
	rec.Label = strings.TrimSpace(rec.Label)
	if rec.Label == "" {
		return Record{}, false
	}
	rec.Origin = OriginGenerated
	rec.ID = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	rec.Seq = c.nextSeq
	c.generated = append([]Record{rec}, c.generated...)
	c.rebuildLocked()
	return rec, true
}

func (c *Catalog) rebuildLocked() {
	c.view = Merge(c.authoritative, c.generated, c.opts.Merge)
}

// View returns a copy of the merged view.
func (c *Catalog) View() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), c.view...)
}

// Search filters the merged view by query.
func (c *Catalog) Search(query string) []Record {
	return Filter(c.View(), query, c.opts.Filter)
}

// Authoritative returns a copy of the authoritative collection.
func (c *Catalog) Authoritative() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), c.authoritative...)
}

// Generated returns a copy of the generated collection, newest first.
func (c *Catalog) Generated() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Record(nil), c.generated...)
}

// HasAuthoritative reports whether label is already covered by the
// authoritative collection. Generated records are not consulted.
func (c *Catalog) HasAuthoritative(label string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ContainsLabel(c.authoritative, label)
}

// Stats summarizes the catalog contents.
type Stats struct {
	Authoritative int
	Generated     int
	View          int
	LoadedAt      time.Time
}

// Stats returns collection sizes and the last successful load time.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Authoritative: len(c.authoritative),
		Generated:     len(c.generated),
		View:          len(c.view),
		LoadedAt:      c.loadedAt,
	}
}
