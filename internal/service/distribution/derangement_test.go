package distribution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
)

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(1000 + i)
	}
	return out
}

func TestDerange_TwoParticipantsSwap(t *testing.T) {
	for i := 0; i < 20; i++ {
		pairs, _ := Derange([]int64{1, 2}, CryptoShuffler)
		assert.Equal(t, []assignment.Pair{{GiverID: 1, RecipientID: 2}, {GiverID: 2, RecipientID: 1}}, pairs)
	}
}

func TestDerange_ProducesDerangement(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 10, 50, 300} {
		givers := ids(n)
		pairs, _ := Derange(givers, CryptoShuffler)
		require.Len(t, pairs, n)

		for i, p := range pairs {
			assert.Equal(t, givers[i], p.GiverID, "pairs follow giver order")
		}
		m := assignment.FromPairs(pairs)
		assert.Len(t, m, n)
		assert.True(t, m.IsDerangement(), "n=%d", n)
	}
}

func TestDerange_DoesNotModifyInput(t *testing.T) {
	givers := ids(10)
	before := append([]int64(nil), givers...)
	Derange(givers, CryptoShuffler)
	assert.Equal(t, before, givers)
}

func TestDerange_FallsBackToRotation(t *testing.T) {
	calls := 0
	noop := func([]int64) error { calls++; return nil }

	pairs, fallback := Derange([]int64{10, 20, 30, 40}, noop)

	assert.True(t, fallback)
	assert.Equal(t, MaxShuffleAttempts, calls)
	assert.Equal(t, []assignment.Pair{
		{GiverID: 10, RecipientID: 20},
		{GiverID: 20, RecipientID: 30},
		{GiverID: 30, RecipientID: 40},
		{GiverID: 40, RecipientID: 10},
	}, pairs)
}

func TestDerange_ShuffleErrorsCountAsAttempts(t *testing.T) {
	failing := func([]int64) error { return errors.New("entropy unavailable") }

	pairs, fallback := Derange([]int64{1, 2, 3}, failing)

	assert.True(t, fallback)
	assert.True(t, assignment.FromPairs(pairs).IsDerangement())
}

func TestDerange_AcceptsFirstValidShuffle(t *testing.T) {
	reverse := func(s []int64) error {
		for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
		return nil
	}

	pairs, fallback := Derange([]int64{1, 2, 3, 4}, reverse)

	assert.False(t, fallback)
	assert.Equal(t, int64(4), pairs[0].RecipientID)
	assert.Equal(t, int64(1), pairs[3].RecipientID)
}
