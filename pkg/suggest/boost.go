package suggest

// Boost is one key:factor pair from a weighted query. Key matches either a
// record type or a record id.
type Boost struct {
	Key    string
	Factor float64
}

// Boosts maps a type or id to its combined multiplier. A nil Boosts is valid
// and boosts nothing.
type Boosts map[string]float64

// NewBoosts folds specs into a map. Repeated keys multiply.
func NewBoosts(specs []Boost) Boosts {
	if len(specs) == 0 {
		return nil
	}
	b := make(Boosts, len(specs))
	for _, s := range specs {
		b.Add(s.Key, s.Factor)
	}
	return b
}

// Add multiplies key's factor by factor.
func (b Boosts) Add(key string, factor float64) {
	if cur, ok := b[key]; ok {
		b[key] = cur * factor
		return
	}
	b[key] = factor
}

// Factor returns key's multiplier, 1 when unset.
func (b Boosts) Factor(key string) float64 {
	if f, ok := b[key]; ok {
		return f
	}
	return 1
}
