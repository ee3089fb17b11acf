package semdom

import "errors"

// Configuration errors are returned before any tree is built.
var (
	ErrInvalidMaxDepth = errors.New("semdom: invalid max depth")
	ErrConflictingTags = errors.New("semdom: tag both included and excluded")
	ErrUnknownRole     = errors.New("semdom: unknown role")
	ErrUnknownIntent   = errors.New("semdom: unknown intent")
	ErrUnknownLevel    = errors.New("semdom: unknown certification level")
	ErrUnknownScoring  = errors.New("semdom: unknown scoring mode")
	ErrNilRoot         = errors.New("semdom: nil root element")
)

// Errors from parsing names supplied by callers (query filters, tool input).
var (
	ErrUnknownState     = errors.New("semdom: unknown state")
	ErrUnknownDirection = errors.New("semdom: unknown direction")
)
