package domain

// Alphabet is the resolved symbol universe of one compile.
// Both sequences are duplicate-free and keep first-occurrence order,
// which only matters for deterministic label numbering downstream.
type Alphabet struct {
	// Total holds every feasible pair, including the completed identity pairs.
	Total []Pair `json:"total"`

	// NonAlphabet holds symbols used outside pair notation that occur in no pair.
	NonAlphabet []Symbol `json:"non_alphabet"`
}

// Symbols returns every symbol occurring on either side of a pair in Total.
func (a Alphabet) Symbols() []Symbol {
	seen := make(map[Symbol]bool)
	var out []Symbol
	for _, p := range a.Total {
		for _, s := range [2]Symbol{p.Lex, p.Surf} {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Contains reports whether p is a feasible pair.
func (a Alphabet) Contains(p Pair) bool {
	for _, q := range a.Total {
		if q == p {
			return true
		}
	}
	return false
}
