package suggest

import (
	"math"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/charmbracelet/log"
)

// Hit is one ranked result.
type Hit struct {
	ID string
	// Score is the boosted score the hit was ranked by.
	Score  float64
	Record index.Record
}

// Engine runs queries against an index.
type Engine struct {
	idx *index.Index
}

var _ Searcher = (*Engine)(nil)

// NewEngine returns an engine reading from idx.
func NewEngine(idx *index.Index) *Engine {
	return &Engine{idx: idx}
}

// Query returns up to limit ids whose names match every token as a prefix.
func (e *Engine) Query(limit int, tokens []string) []string {
	return e.Execute(limit, tokens, nil)
}

// WeightedQuery is Query with boost specs applied. Specs on the same key
// compose multiplicatively.
func (e *Engine) WeightedQuery(limit int, specs []Boost, tokens []string) []string {
	return e.Execute(limit, tokens, NewBoosts(specs))
}

// Execute returns the ids of Search, in rank order.
func (e *Engine) Execute(limit int, tokens []string, boosts Boosts) []string {
	hits := e.Search(limit, tokens, boosts)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

// Search intersects the candidate sets of all tokens and ranks the survivors
// by score*boost(type)*boost(id) descending, then newer timestamp first, then
// id ascending. A token with no trie path yields no results.
func (e *Engine) Search(limit int, tokens []string, boosts Boosts) []Hit {
	if limit <= 0 || len(tokens) == 0 {
		return nil
	}

	var hits []Hit
	e.idx.View(func(r index.Reader) {
		candidates := intersect(r, tokens)
		if candidates == nil || candidates.IsEmpty() {
			return
		}

		hits = make([]Hit, 0, candidates.GetCardinality())
		it := candidates.Iterator()
		for it.HasNext() {
			ord := it.Next()
			rec, ok := r.Record(ord)
			if !ok {
				log.Errorf("Candidate ordinal %d has no record", ord)
				continue
			}
			hits = append(hits, Hit{
				ID:     rec.ID,
				Score:  rec.Score * boosts.Factor(rec.Type) * boosts.Factor(rec.ID),
				Record: *rec,
			})
		}
	})

	rank(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// intersect returns the ordinals present under every token, or nil when a
// token has no path. The result is a fresh bitmap the caller owns.
func intersect(r index.Reader, tokens []string) *roaring.Bitmap {
	sets := make([]*roaring.Bitmap, 0, len(tokens))
	for _, tok := range tokens {
		set, ok := r.Lookup(strings.ToLower(tok))
		if !ok || set.IsEmpty() {
			return nil
		}
		sets = append(sets, set)
	}
	if len(sets) == 1 {
		return sets[0].Clone()
	}
	return roaring.FastAnd(sets...)
}

// rank orders hits best first. A NaN score, as from an infinite score boosted
// by zero, ranks below every number.
func rank(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score); an != bn {
			return bn
		}
		if a.Score != b.Score && !math.IsNaN(a.Score) {
			return a.Score > b.Score
		}
		if a.Record.Timestamp != b.Record.Timestamp {
			return a.Record.Timestamp > b.Record.Timestamp
		}
		return a.ID < b.ID
	})
}
