// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const dummyPassword = "dummy_password_for_timing_attack_prevention"

// PasswordHasher hashes with bcrypt at a fixed cost factor. The dummy hash
// is computed at the same cost so a lookup miss still pays for one compare.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range: %w", cost, ErrInvalidInput)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}

// VerifyTimingSafe compares against the dummy hash when encodedHash is nil
// or empty and always reports false in that case.
func (h *PasswordHasher) VerifyTimingSafe(password string, encodedHash *string) bool {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result discarded, only the timing matters
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
		return false
	}

	valid, err := h.Verify(password, *encodedHash)
	if err != nil {
		return false
	}
	return valid
}

// NeedsRehash reports whether the stored hash was produced with a
// different cost than the current one.
func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func GenerateRefreshToken() (string, error) {
	return GenerateSecureToken(32)
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func CompareTokenHash(token, hash string) bool {
	tokenHash := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(hash)) == 1
}
