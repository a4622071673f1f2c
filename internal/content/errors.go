package content

import "errors"

var (
	ErrUnknownType  = errors.New("content: unknown entry type")
	ErrEmptySlug    = errors.New("content: title produces an empty slug")
	ErrMissingTitle = errors.New("content: title is required")
	ErrBadIndex     = errors.New("content: malformed index")
)
