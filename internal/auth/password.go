package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher is stateless apart from its cost and may be shared freely
// between goroutines.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash, or any
// panic raised while comparing, counts as a mismatch.
func (h *BcryptHasher) Verify(plaintext, hash string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
