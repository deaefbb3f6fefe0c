package rand

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// UpperAlphanumeric is the default alphabet for access codes.
const UpperAlphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrEmptyAlphabet is returned when a string is requested from an empty alphabet.
var ErrEmptyAlphabet = errors.New("alphabet must not be empty")

// StrFrom generates a random string of the specified length using the characters from alphabet.
// Every character is drawn independently and uniformly from crypto/rand.
func StrFrom(alphabet string, length int) (string, error) {
	chars := []rune(alphabet)
	if len(chars) == 0 {
		return "", ErrEmptyAlphabet
	}

	max := big.NewInt(int64(len(chars)))

	b := make([]rune, length)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		b[i] = chars[idx.Int64()]
	}
	return string(b), nil
}
