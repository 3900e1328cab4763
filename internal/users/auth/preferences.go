// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "maps"

// Preferences is a set of boolean switches keyed by a whitelisted name.
type Preferences map[string]bool

// # Whitelists

// DefaultNotificationPrefs lists every accepted notification key with its default.
func DefaultNotificationPrefs() Preferences {
	return Preferences{
		"recipe_notifications":    true,
		"meal_plan_notifications": true,
		"shopping_notifications":  false,
		"tips_notifications":      true,
	}
}

// DefaultPrivacySettings lists every accepted privacy key with its default.
func DefaultPrivacySettings() Preferences {
	return Preferences{
		"allow_sharing":     true,
		"analytics_enabled": true,
	}
}

// Merge overlays updates onto current, keeping only keys present in defaults.
//
// Unknown keys in updates are ignored. Keys missing from current fall back to
// their default so the result always carries the whole whitelist.
func Merge(defaults, current, updates Preferences) Preferences {
	merged := maps.Clone(defaults)
	for key := range defaults {
		if value, ok := current[key]; ok {
			merged[key] = value
		}
		if value, ok := updates[key]; ok {
			merged[key] = value
		}
	}
	return merged
}
