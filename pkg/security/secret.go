package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("secret hashing failed")
	MinSecretLen     = 4
)

// SecretHasher provides interface for operator credential operations
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hashedSecret, secret string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new secret hasher using bcrypt
func NewBcryptHasher(cost int) SecretHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(secret string) (string, error) {
	if len(secret) < MinSecretLen {
		return "", errors.New("secret too short")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}
