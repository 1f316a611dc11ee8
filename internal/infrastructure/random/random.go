package random

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the symbol set of codes, tokens and transaction ids
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// 248 is the largest multiple of 62 that fits in a byte; bytes at or above
// it are rejected so every symbol is equally likely.
const maxByte = 256 - (256 % len(Alphabet))

// String returns n symbols drawn uniformly from Alphabet using crypto/rand
func String(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random string length must be positive, got %d", n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("error reading random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
