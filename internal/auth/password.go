package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPassword is returned by Verify when the password doesn't match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

// PasswordService hashes and checks account passwords with bcrypt. The cost
// comes from BCRYPT_COST; tests drop it to bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService uses cost as the bcrypt work factor. Existing
// hashes keep verifying after a cost change since each hash records its own.
func NewPasswordService(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns a self-describing bcrypt hash (salt and cost embedded).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns ErrInvalidPassword on a mismatch. Any other error means the
// stored hash is unusable (an OAuth-only account has an empty hash, for one).
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
