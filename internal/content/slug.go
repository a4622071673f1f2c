package content

import "strings"

// Slug derives the URL-safe identifier of an entry from its title: lowercase,
// every character outside [a-z0-9] becomes a hyphen, runs of hyphens collapse
// and leading/trailing hyphens are dropped.
//
// Two titles that map to the same slug collide; callers do not resolve that.
func Slug(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
