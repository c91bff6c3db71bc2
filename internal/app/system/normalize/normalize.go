// Package normalize holds the canonical trimming and casing rules for values
// that are stored or compared: login IDs, roles, statuses and the natural
// keys of content entities.
package normalize

import "strings"

// LoginID trims and lowercases a login identifier.
func LoginID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Use text.Fold for comparison keys.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status trims and lowercases a user status.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases a role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key turns free text into a natural key or slug: lowercase ASCII letters,
// digits and single hyphens, e.g. " Jordan  Reyes " -> "jordan-reyes".
func Key(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
