// Package chatid classifies WhatsApp gateway chat identifiers. The gateway
// uses several disjoint namespaces (real phone, group, status broadcast,
// privacy-preserving LID) that must never be treated as interchangeable
// phone numbers: storing a group or LID as a lead's phone corrupts the
// contact graph.
package chatid

import "strings"

const (
	suffixIndividual = "@c.us"
	suffixWhatsApp   = "@s.whatsapp.net"
	suffixGroup      = "@g.us"
	suffixLID        = "@lid"
	suffixBroadcast  = "@broadcast"

	// Group chat ids without a suffix start with this fixed prefix.
	groupPrefix = "120363"

	// Bare numeric ids at or above this length are privacy ids, not phones.
	lidMinDigits = 15
)

var knownSuffixes = []string{
	suffixIndividual,
	suffixWhatsApp,
	suffixGroup,
	suffixLID,
	suffixBroadcast,
}

// IsGroupChat reports whether id addresses a group conversation.
func IsGroupChat(id string) bool {
	if id == "" {
		return false
	}
	if strings.HasSuffix(id, suffixGroup) {
		return true
	}
	if !strings.Contains(id, "@") {
		return strings.HasPrefix(id, groupPrefix)
	}
	return false
}

// IsStatusBroadcast reports whether id is the status/broadcast channel.
func IsStatusBroadcast(id string) bool {
	if id == "" {
		return false
	}
	return strings.Contains(id, "status@broadcast") || strings.HasSuffix(id, suffixBroadcast)
}

// IsLID reports whether id is a privacy-preserving linked id rather than a
// real phone number. An explicit @c.us or @s.whatsapp.net suffix marks a real
// phone and overrides the digit-length heuristic; groups are never LIDs.
func IsLID(id string) bool {
	if id == "" {
		return false
	}
	if strings.HasSuffix(id, suffixLID) {
		return true
	}
	if strings.HasSuffix(id, suffixIndividual) || strings.HasSuffix(id, suffixWhatsApp) {
		return false
	}
	if IsGroupChat(id) || IsStatusBroadcast(id) {
		return false
	}
	if strings.Contains(id, "@") {
		return false
	}
	return len(digitsOnly(id)) >= lidMinDigits
}

// BuildChatID produces an individual chat id from a phone number.
func BuildChatID(phoneNumber string) string {
	digits := digitsOnly(phoneNumber)
	if digits == "" {
		return ""
	}
	return digits + suffixIndividual
}

// ExtractPhoneFromChatID strips any known suffix and all non-digit
// characters, returning the bare numeric identity.
func ExtractPhoneFromChatID(id string) string {
	if id == "" {
		return ""
	}
	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(id, suffix) {
			id = strings.TrimSuffix(id, suffix)
			break
		}
	}
	return digitsOnly(id)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
