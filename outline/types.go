// Package outline turns user text into an ordered slide outline, either by
// asking an LLM provider or through a deterministic fallback builder.
package outline

import "strings"

// SlideSpec describes one slide.
type SlideSpec struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// Outline is an ordered list of slides. A normalized outline always holds at
// least one slide and never more than the configured ceiling.
type Outline []SlideSpec

// clipRunes shortens s to at most max runes, appending the marker when text
// was cut. Rune-based so multi-byte text is never split mid-character.
func clipRunes(s string, max int, marker string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	keep := max - len([]rune(marker))
	if keep < 0 {
		keep = 0
	}
	return strings.TrimSpace(string(runes[:keep])) + marker
}
