package interactions

import "errors"

// ErrInvalidRequest marks a structurally valid interaction the bot cannot
// route: an unknown command, a wrong number of sub-commands, or an unknown
// modal. It maps to HTTP 400.
var ErrInvalidRequest = errors.New("interactions: invalid request")

// User-facing texts of business outcomes. All of them are answered with 200.
const (
	DeniedMessage      = "You are not allowed to use this command"
	ThrottledMessage   = "You are doing that too fast, please wait a moment and try again"
	MissingTermMessage = "Please provide a search term"
	MissingTitleText   = "Please provide a title for the tip"
	EmptySlugMessage   = "The title must contain at least one letter or digit"
)
