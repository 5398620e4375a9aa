// Package otp implements the stateless one-time-password protocol used by
// the my-insurance self-service lookup flow: a symmetric token codec and a
// verification state machine over the (name, phone) identity claim.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// GenerateCode returns a uniformly random 6-digit code with a non-zero
// leading digit (100000-999999).
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}

// NormalizeName trims surrounding whitespace from a claimed name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidName reports whether a normalized name is acceptable (two or more
// characters).
func ValidName(name string) bool {
	return utf8.RuneCountInString(name) >= 2
}

// NormalizePhone strips every non-digit character, so "010-1234-5678" and
// "01012345678" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether a normalized phone is an 11-digit local mobile
// number with the leading zero.
func ValidPhone(phone string) bool {
	return len(phone) == 11 && phone[0] == '0'
}
