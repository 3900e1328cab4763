// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned by [Hasher.Hash] when asked to hash an empty plaintext.
var ErrEmptyPassword = errors.New("sec: password must not be empty")

// Hasher hashes and verifies passwords with bcrypt.
//
// bcrypt embeds a random salt and the cost in every hash, so hashing the same
// plaintext twice yields two different strings that both verify.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher whose cost is clamped to bcrypt's supported range.
// A zero cost selects [bcrypt.DefaultCost].
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (hasher *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), hasher.Cost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether plaintext matches hash.
//
// It never fails: an empty, malformed or truncated hash simply does not match,
// so callers cannot tell a missing hash from a wrong password.
func (hasher *Hasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
