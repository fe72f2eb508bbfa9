// Package suggest is the query side: per-token trie lookups, candidate intersection, and boosted top-K ranking.
package suggest

// Searcher answers ranked prefix queries.
type Searcher interface {
	// Query returns up to limit ids matching every token, unboosted.
	Query(limit int, tokens []string) []string

	// WeightedQuery is Query with type/id boost factors applied to scores.
	WeightedQuery(limit int, specs []Boost, tokens []string) []string

	// Search returns ranked hits with their effective scores.
	Search(limit int, tokens []string, boosts Boosts) []Hit
}
