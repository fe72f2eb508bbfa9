// Package index holds the record store and the prefix trie behind it.
//
// Every token of a live record is linked into the trie at each of its
// prefixes, so a record is discoverable by any prefix of any of its tokens.
// Index wraps both structures behind a readers-writer lock: mutations are
// exclusive, and a query runs all of its lookups inside a single View.
package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/charmbracelet/log"
)

// ErrEmptyID is returned by Upsert for records without an id.
var ErrEmptyID = errors.New("record id is empty")

// Reader is the read-only view handed to View callbacks.
type Reader interface {
	// Lookup returns the candidate ordinals for prefix, false if no path exists.
	Lookup(prefix string) (*roaring.Bitmap, bool)
	// Record resolves an ordinal from Lookup.
	Record(ord uint32) (*Record, bool)
}

// Stats summarizes index state.
type Stats struct {
	Records     int
	Nodes       int
	Deletes     int
	Compactions int
}

// Index is the record store plus its trie.
type Index struct {
	mu           sync.RWMutex
	store        *Store
	trie         *Trie
	compactEvery int
	deletes      int
	compactions  int
}

// Option configures an Index.
type Option func(*Index)

// WithCompactEvery prunes empty trie nodes after every n deletes.
// Zero or negative disables automatic compaction.
func WithCompactEvery(n int) Option {
	return func(ix *Index) {
		ix.compactEvery = n
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		store: NewStore(),
		trie:  NewTrie(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Upsert adds rec, replacing any record with the same id. A replaced record
// has its old tokens unlinked before the new ones are linked.
func (ix *Index) Upsert(rec Record) error {
	if rec.ID == "" {
		return ErrEmptyID
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.store.Get(rec.ID); ok {
		if _, err := ix.remove(rec.ID); err != nil {
			return err
		}
		log.Debugf("Replacing record %q", rec.ID)
	}

	r := rec
	r.Name = append([]string(nil), rec.Name...)
	ix.store.Put(&r)
	for _, tok := range r.Tokens() {
		ix.trie.Insert(tok, r.ord)
	}
	return nil
}

// Delete removes the record with the given id. Unknown ids are a no-op and
// report false.
func (ix *Index) Delete(id string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ok, err := ix.remove(id)
	if err != nil || !ok {
		return ok, err
	}
	ix.deletes++
	if ix.compactEvery > 0 && ix.deletes%ix.compactEvery == 0 {
		ix.compact()
	}
	return true, nil
}

func (ix *Index) remove(id string) (bool, error) {
	rec, ok := ix.store.Remove(id)
	if !ok {
		return false, nil
	}
	for _, tok := range rec.Tokens() {
		if err := ix.trie.Remove(tok, rec.ord); err != nil {
			return true, fmt.Errorf("unlink record %q: %w", id, err)
		}
	}
	return true, nil
}

// Get returns a copy of the record with the given id.
func (ix *Index) Get(id string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.store.Get(id)
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Scan calls fn with records whose id starts with idPrefix, in id order.
// fn must not mutate the index.
func (ix *Index) Scan(idPrefix string, fn func(Record) bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.store.Scan(idPrefix, func(rec *Record) bool {
		return fn(*rec)
	})
}

// View runs fn with read access to the trie and store. Writers wait until fn
// returns, so everything fn observes is one consistent state.
func (ix *Index) View(fn func(Reader)) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	fn(reader{ix})
}

// Compact prunes empty trie nodes now and returns how many were removed.
func (ix *Index) Compact() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.compact()
}

func (ix *Index) compact() int {
	pruned := ix.trie.Compact()
	ix.compactions++
	log.Debugf("Compacted trie: pruned %d nodes, %d left", pruned, ix.trie.Len())
	return pruned
}

// Stats returns a snapshot of index counters.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return Stats{
		Records:     ix.store.Len(),
		Nodes:       ix.trie.Len(),
		Deletes:     ix.deletes,
		Compactions: ix.compactions,
	}
}

// DumpTrie renders the trie in level order.
func (ix *Index) DumpTrie() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.trie.String()
}

type reader struct {
	ix *Index
}

func (r reader) Lookup(prefix string) (*roaring.Bitmap, bool) {
	return r.ix.trie.Lookup(prefix)
}

func (r reader) Record(ord uint32) (*Record, bool) {
	return r.ix.store.ByOrdinal(ord)
}
