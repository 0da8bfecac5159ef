package slides

import (
	"fmt"
	"strings"
)

// MaxOutline is the deepest outline level: 0 none, 1 top-level slides,
// 2 top-level and child slides.
const MaxOutline = 2

// OutlineTitle is the title of the generated outline slide.
const OutlineTitle = "Outline"

// OutlineDoc renders the markdown body of the outline slide, or "" when no
// slide qualifies. The cover slide at index 0 is never listed.
func OutlineDoc(nav []TopSlide, level int, history bool) string {
	var lines []string
	walk(nav, func(top, child int, s *Slide) {
		if top == 0 || s.Title == "" {
			return
		}
		if child == 0 && level < 1 || child > 0 && level < 2 {
			return
		}
		indent := ""
		anchor := fmt.Sprintf("#/%d", top)
		if child > 0 {
			indent = "  "
			anchor = fmt.Sprintf("#/%d/%d", top, child)
		}
		if history {
			lines = append(lines, fmt.Sprintf("%s+ [%s](%s)", indent, s.Title, anchor))
		} else {
			lines = append(lines, fmt.Sprintf("%s+ %s", indent, s.Title))
		}
	})
	return strings.Join(lines, "\n")
}

// NeedsMath reports whether any slide carries math content.
func NeedsMath(nav []TopSlide) bool {
	found := false
	walk(nav, func(_, _ int, s *Slide) {
		if !found && s.Math != "" {
			found = true
		}
	})
	return found
}
