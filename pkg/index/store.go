package index

import (
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Record is one indexed entry.
type Record struct {
	ID    string
	Type  string
	Score float64
	// Name keeps the original casing; Tokens gives the indexed form.
	Name []string
	// Timestamp is the command counter at ADD time, used only for tie-breaks.
	Timestamp uint64

	ord uint32
}

// Tokens returns the lowercased name tokens used as trie keys.
func (r *Record) Tokens() []string {
	tokens := make([]string, len(r.Name))
	for i, tok := range r.Name {
		tokens[i] = strings.ToLower(tok)
	}
	return tokens
}

// DisplayName joins the original name tokens with single spaces.
func (r *Record) DisplayName() string {
	return strings.Join(r.Name, " ")
}

// Store maps record ids to records. Ids live in a patricia trie so scans come
// back ordered and can be narrowed by id prefix; ordinals map back to records
// for resolving trie candidate sets.
type Store struct {
	byID    *patricia.Trie
	byOrd   map[uint32]*Record
	nextOrd uint32
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID:  patricia.NewTrie(),
		byOrd: make(map[uint32]*Record),
	}
}

// Put stores rec under rec.ID, assigning it a fresh ordinal. Any previous
// record with the same id is replaced and returned.
func (s *Store) Put(rec *Record) (*Record, bool) {
	old, replaced := s.Get(rec.ID)
	if replaced {
		delete(s.byOrd, old.ord)
	}
	rec.ord = s.nextOrd
	s.nextOrd++
	s.byID.Set(patricia.Prefix(rec.ID), rec)
	s.byOrd[rec.ord] = rec
	return old, replaced
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (*Record, bool) {
	item := s.byID.Get(patricia.Prefix(id))
	if item == nil {
		return nil, false
	}
	return item.(*Record), true
}

// ByOrdinal resolves a trie ordinal to its record.
func (s *Store) ByOrdinal(ord uint32) (*Record, bool) {
	rec, ok := s.byOrd[ord]
	return rec, ok
}

// Remove deletes the record with the given id and returns it so the caller
// can unlink its tokens. Unknown ids report false.
func (s *Store) Remove(id string) (*Record, bool) {
	rec, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	s.byID.Delete(patricia.Prefix(id))
	delete(s.byOrd, rec.ord)
	return rec, true
}

// Scan calls fn for every record whose id starts with idPrefix, in id order.
// Returning false stops the scan.
func (s *Store) Scan(idPrefix string, fn func(*Record) bool) {
	var recs []*Record
	_ = s.byID.VisitSubtree(patricia.Prefix(idPrefix), func(_ patricia.Prefix, item patricia.Item) error {
		recs = append(recs, item.(*Record))
		return nil
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	for _, rec := range recs {
		if !fn(rec) {
			return
		}
	}
}

// Len is the number of live records.
func (s *Store) Len() int {
	return len(s.byOrd)
}
