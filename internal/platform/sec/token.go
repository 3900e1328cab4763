// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// secureTokenBytes is the entropy of tokens sent to users (reset, verification).
const secureTokenBytes = 32

// GenerateSecureToken returns a hex-encoded token of 32 random bytes read from random.
// A nil reader selects [crypto/rand.Reader].
func GenerateSecureToken(random io.Reader) (string, error) {
	return randomHex(random, secureTokenBytes)
}

// HashToken returns the hex SHA-256 digest of token.
//
// Only digests are stored server-side, so a leaked store cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(random io.Reader, size int) (string, error) {
	if random == nil {
		random = rand.Reader
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("sec_random_bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
