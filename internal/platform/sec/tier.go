// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Account Tiers

// AccountTier is the subscription level embedded in access tokens.
type AccountTier string

const (
	// Default tier for every newly registered account
	TierRegular AccountTier = "regular"

	// Paid tier
	TierPremium AccountTier = "premium"
)

// Valid reports whether t is a known tier.
func (t AccountTier) Valid() bool {
	return t == TierRegular || t == TierPremium
}

// OrDefault returns t, or [TierRegular] when t is unknown.
func (t AccountTier) OrDefault() AccountTier {
	if t.Valid() {
		return t
	}
	return TierRegular
}

// # Identity

// Identity is the authenticated principal behind a request, derived from a
// verified access token whose session is still valid.
type Identity struct {
	UserID   string
	TokenID  string
	Tier     AccountTier
	Email    string
	Language string
}
