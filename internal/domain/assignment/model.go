package assignment

// Pair links a giver to the recipient they buy a gift for.
type Pair struct {
	GiverID     int64 `json:"giver_id"`
	RecipientID int64 `json:"recipient_id"`
}

// Mapping is the giver ID -> recipient ID result of one distribution run.
type Mapping map[int64]int64

// FromPairs builds a Mapping from ordered pairs.
func FromPairs(pairs []Pair) Mapping {
	m := make(Mapping, len(pairs))
	for _, p := range pairs {
		m[p.GiverID] = p.RecipientID
	}
	return m
}

// IsDerangement reports whether m is a bijection over its own key set with
// no giver mapped to itself.
func (m Mapping) IsDerangement() bool {
	seen := make(map[int64]struct{}, len(m))
	for giver, recipient := range m {
		if giver == recipient {
			return false
		}
		if _, ok := m[recipient]; !ok {
			return false
		}
		if _, dup := seen[recipient]; dup {
			return false
		}
		seen[recipient] = struct{}{}
	}
	return true
}
