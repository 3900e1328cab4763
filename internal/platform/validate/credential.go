// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// # Credential Policy

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt accepts. It counts bytes,
// not characters.
const MaxPasswordBytes = 72

// PasswordSpecialChars is the set that satisfies the special-character rule.
const PasswordSpecialChars = `!@#$%^&*(),.?":{}|<>`

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[` + regexp.QuoteMeta(PasswordSpecialChars) + `]`)
)

// passwordRule is one clause of the password policy. Rules are evaluated in
// declaration order and that order is preserved in the reasons list.
type passwordRule struct {
	satisfied func(string) bool
	reason    string
}

var passwordRules = []passwordRule{
	{
		satisfied: func(p string) bool { return utf8.RuneCountInString(p) >= MinPasswordLength },
		reason:    fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength),
	},
	{
		satisfied: func(p string) bool { return len(p) <= MaxPasswordBytes },
		reason:    fmt.Sprintf("Password must be at most %d bytes long", MaxPasswordBytes),
	},
	{satisfied: upperRegex.MatchString, reason: "Password must contain at least one uppercase letter"},
	{satisfied: lowerRegex.MatchString, reason: "Password must contain at least one lowercase letter"},
	{satisfied: digitRegex.MatchString, reason: "Password must contain at least one number"},
	{satisfied: specialRegex.MatchString, reason: "Password must contain at least one special character"},
}

// IsEmail reports whether value is a conventional local@domain.tld address.
// No DNS or MX verification is performed.
func IsEmail(value string) bool {
	return emailRegex.MatchString(value)
}

// Password checks value against the password policy.
//
// It returns true and an empty slice when every rule holds. Otherwise it
// returns false and one human-readable reason per unmet rule.
func Password(value string) (bool, []string) {
	reasons := make([]string, 0, len(passwordRules))
	for _, rule := range passwordRules {
		if !rule.satisfied(value) {
			reasons = append(reasons, rule.reason)
		}
	}
	return len(reasons) == 0, reasons
}

// JoinReasons formats password policy reasons for display.
func JoinReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims a display name and converts it to Unicode NFC so that
// visually identical names are stored identically.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
