package distribution

import (
	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/utils/random"
)

// MaxShuffleAttempts bounds rejection sampling before falling back to a
// rotation.
const MaxShuffleAttempts = 1000

// Shuffler permutes ids in place.
type Shuffler func(ids []int64) error

// CryptoShuffler is the production Shuffler.
func CryptoShuffler(ids []int64) error { return random.Shuffle(ids) }

// Derange pairs every giver with a recipient from the same set so that no
// giver gets themselves. It returns pairs in giver order and whether the
// rotation fallback was used. len(givers) must be at least 2.
func Derange(givers []int64, shuffle Shuffler) (pairs []assignment.Pair, fallback bool) {
	n := len(givers)
	candidates := make([]int64, n)
	copy(candidates, givers)

	for attempt := 0; attempt < MaxShuffleAttempts; attempt++ {
		if err := shuffle(candidates); err != nil {
			continue
		}
		if noFixedPoints(givers, candidates) {
			return zip(givers, candidates), false
		}
	}

	for i := range givers {
		candidates[i] = givers[(i+1)%n]
	}
	return zip(givers, candidates), true
}

func noFixedPoints(givers, candidates []int64) bool {
	for i := range givers {
		if givers[i] == candidates[i] {
			return false
		}
	}
	return true
}

func zip(givers, recipients []int64) []assignment.Pair {
	pairs := make([]assignment.Pair, len(givers))
	for i := range givers {
		pairs[i] = assignment.Pair{GiverID: givers[i], RecipientID: recipients[i]}
	}
	return pairs
}
