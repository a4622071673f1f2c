// Package search answers free-text queries against the content index.
package search

import (
	"strings"

	"github.com/tipsbot/internal/content"
)

// Search returns every record whose title or any tag contains term,
// case-insensitively. Results keep corpus order and each slug appears once:
// the first occurrence while walking the index wins. The result is not
// truncated; capping is up to the renderer.
//
// A blank term matches nothing.
func Search(term string, idx *content.Index) []content.Record {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var results []content.Record
	idx.Each(func(_ string, rec content.Record) bool {
		if !matches(rec, needle) {
			return true
		}
		if _, dup := seen[rec.Slug]; dup {
			return true
		}
		seen[rec.Slug] = struct{}{}
		results = append(results, rec)
		return true
	})
	return results
}

func matches(rec content.Record, needle string) bool {
	if strings.Contains(strings.ToLower(rec.Title), needle) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
