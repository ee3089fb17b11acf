package semdom

import "strings"

// blockedSchemes are never exposed on Node.Href.
var blockedSchemes = []string{"javascript:", "data:", "vbscript:", "blob:"}

// SanitizeHref returns href with surrounding whitespace removed, or "" when
// it uses a script-capable or opaque scheme. Relative URLs are kept as is.
func SanitizeHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	// Browsers ignore ASCII tab and newline inside the scheme, so
	// "java\tscript:" still runs.
	probe := strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, href)
	probe = strings.ToLower(probe)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(probe, scheme) {
			return ""
		}
	}
	return href
}
