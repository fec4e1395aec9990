// Package password provides one-way salted password hashing.
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for member passwords.
const DefaultCost = 12

// MaxPasswordBytes is the longest input bcrypt accepts. Longer passwords are
// cut to the last whole character that fits, in both Hash and Verify.
const MaxPasswordBytes = 72

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// Hasher provides password hashing and verification.
type Hasher interface {
	// Hash produces a salted hash of the password.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches hash. A malformed hash never matches.
	Verify(plaintext, hash string) bool
}

// Bcrypt implements Hasher using bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher, clamping cost into bcrypt's accepted range.
func NewBcrypt(cost int) *Bcrypt {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the work factor new hashes are produced with.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash produces a bcrypt hash of the password.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(truncate(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks the password against the hash in constant time.
func (b *Bcrypt) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plaintext)) == nil
}

// truncate limits plaintext to MaxPasswordBytes without splitting a
// multi-byte character.
func truncate(plaintext string) []byte {
	if len(plaintext) <= MaxPasswordBytes {
		return []byte(plaintext)
	}
	cut := MaxPasswordBytes
	for cut > MaxPasswordBytes-utf8.UTFMax && !utf8.RuneStart(plaintext[cut]) {
		cut--
	}
	return []byte(plaintext[:cut])
}
