package citations

import (
	"fmt"
	"strings"
)

// ChapterDelimiter separates concatenated chapter contents in the final
// report and staged research material throughout the run.
const ChapterDelimiter = "\n\n---\n\n"

// RenderReferences renders the numbered reference section from the given
// sources. Returns an empty string when there are no sources. Idempotent
// for an unchanged registry.
func RenderReferences(sources []Entry) string {
	if len(sources) == 0 {
		return ""
	}
	lines := []string{"\n\n---\n\n## References"}
	for _, s := range sources {
		title := s.Title
		if title == "" {
			title = FallbackTitle
		}
		lines = append(lines, fmt.Sprintf("[%d] %s. Available: %s", s.Number, title, s.URL))
	}
	return strings.Join(lines, "\n")
}

// AssembleReport concatenates finished chapter texts in plan order and
// appends the reference section.
func AssembleReport(chapters []string, sources []Entry) string {
	body := strings.Join(chapters, ChapterDelimiter)
	refs := RenderReferences(sources)
	if body == "" {
		return refs
	}
	return body + refs
}
