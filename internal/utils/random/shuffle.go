package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// IntN returns a uniform integer in [0, n).
type IntN func(n int) (int, error)

// CryptoIntN draws from crypto/rand.
func CryptoIntN(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

// Shuffle performs a cryptographically secure shuffle of the slice.
func Shuffle[T any](slice []T) error {
	return ShuffleWith(slice, CryptoIntN)
}

// ShuffleWith performs a Fisher-Yates shuffle drawing indexes from intn.
func ShuffleWith[T any](slice []T, intn IntN) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return err
		}
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}
