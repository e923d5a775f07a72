package credentials

import (
	"crypto/rand"
	"fmt"
	"io"
)

// DefaultPasswordLength matches the length of generated VM and key
// passphrases.
const DefaultPasswordLength = 50

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"!@#$%&*()-_=+[]{}<>:?"

// GeneratePassword returns a random password of the given length drawn from
// crypto/rand.
func GeneratePassword(length int) (string, error) {
	return GeneratePasswordFrom(rand.Reader, length)
}

// GeneratePasswordFrom returns a random password of the given length read
// from r. Characters are drawn uniformly from upper and lower case letters,
// digits and symbols.
func GeneratePasswordFrom(r io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("password length must be positive, got %d", length)
	}
	n := len(passwordAlphabet)
	// Largest multiple of n below 256; bytes at or above it are rejected to
	// keep the distribution uniform.
	limit := 256 - 256%n

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("reading entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, passwordAlphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
