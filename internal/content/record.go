package content

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of a knowledge-base entry.
type Type string

const (
	TypeTalk    Type = "talk"
	TypeGuide   Type = "guide"
	TypeTip     Type = "tip"
	TypeSource  Type = "source"
	TypeLink    Type = "link"
	TypeSnippet Type = "snippet"
)

var knownTypes = []Type{TypeTalk, TypeGuide, TypeTip, TypeSource, TypeLink, TypeSnippet}

// ParseType normalizes s and checks it against the known entry types.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range knownTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Record is one knowledge-base entry as found in the content index.
type Record struct {
	Title    string
	Tags     []string
	Type     Type
	Link     string
	Source   string
	Created  time.Time
	Slug     string
	Body     string
	Category string // index tag the record was listed under
}

// HasBody reports whether the record carries markdown text beyond its frontmatter.
func (r Record) HasBody() bool {
	return strings.TrimSpace(r.Body) != ""
}
