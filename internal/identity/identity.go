// Package identity generates and validates the identifiers used to key stored
// accounts, and resolves a free-form username into a typed Credential.
package identity

import (
	"encoding/hex"
	"net/mail"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
)

var (
	identifierRe = regexp.MustCompile(`^[0-9a-f]{7}-[0-9a-f]{8}-[0-9a-f]{7}-[0-9a-f]{7}$`)
	sharedKeyRe  = regexp.MustCompile(`^[0-9a-f]+$`)
)

// domainBlacklist lists disposable-mail domains that are never accepted as
// account emails.
var domainBlacklist = map[string]struct{}{
	"mailinator.com": {},
}

// GenerateIdentifier returns a new random account identifier such as
// 75c1209-dbcac5a6-e040977-64a52ae.
//
// 16 random bytes are hex encoded and cut into 7-8-7-7 character groups; the
// characters at positions 7, 16 and 24 are dropped.
func GenerateIdentifier() string {
	h := hex.EncodeToString(common.GenerateRandByteArray(16))
	return h[0:7] + "-" + h[8:16] + "-" + h[17:24] + "-" + h[25:32]
}

// IsValidIdentifier reports whether s has the 7-8-7-7 lowercase hex shape.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// IsValidSharedKey reports whether s is a non-empty lowercase hex string.
func IsValidSharedKey(s string) bool {
	return sharedKeyRe.MatchString(s)
}

// IsValidEmail reports whether s is a bare RFC 5322 address with a dotted
// domain that is not blacklisted.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	domain := strings.ToLower(s[at+1:])
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	_, banned := domainBlacklist[domain]
	return !banned
}
