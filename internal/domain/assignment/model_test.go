package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPairs(t *testing.T) {
	m := FromPairs([]Pair{{GiverID: 1, RecipientID: 2}, {GiverID: 2, RecipientID: 1}})
	assert.Equal(t, Mapping{1: 2, 2: 1}, m)
}

func TestIsDerangement(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		want bool
	}{
		{"swap", Mapping{1: 2, 2: 1}, true},
		{"three cycle", Mapping{1: 2, 2: 3, 3: 1}, true},
		{"fixed point", Mapping{1: 1, 2: 3, 3: 2}, false},
		{"recipient outside set", Mapping{1: 2, 2: 9}, false},
		{"duplicate recipient", Mapping{1: 3, 2: 3, 3: 1}, false},
		{"empty", Mapping{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.IsDerangement())
		})
	}
}
