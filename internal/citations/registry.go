// Package citations maintains the run-scoped citation registry: a stable
// URL to reference-number mapping shared across all writing tasks, plus the
// rendering of the final reference list.
package citations

import (
	"fmt"
	"regexp"
	"sort"
)

// markerRegex matches inline citation markers of the form [ref:<url>]
// emitted by the writing model.
var markerRegex = regexp.MustCompile(`\[ref:(https?://[^\s\]]+)\]`)

// FallbackTitle is used when the indexing service cannot resolve a source.
const FallbackTitle = "unknown title"

// Entry is one registered source.
type Entry struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// TitleResolver looks up the display title for a source URL. Returning an
// empty string or an error falls back to FallbackTitle.
type TitleResolver func(url string) (string, error)

// Registry assigns dense reference numbers, starting at 1, in first-occurrence
// order across all chapters of a run. Numbers are immutable once assigned.
//
// Fields are exported so the registry round-trips through activity payloads;
// the workflow owns the single live copy, so no locking is needed.
type Registry struct {
	Entries    map[string]Entry `json:"entries"`
	NextNumber int              `json:"next_number"`
}

// NewRegistry returns an empty registry with numbering starting at 1.
func NewRegistry() *Registry {
	return &Registry{Entries: make(map[string]Entry), NextNumber: 1}
}

// Rewrite replaces every [ref:<url>] marker in text with a numbered,
// URL-linked citation, registering previously unseen URLs as it goes.
func (r *Registry) Rewrite(text string, resolve TitleResolver) string {
	if r.Entries == nil {
		r.Entries = make(map[string]Entry)
	}
	if r.NextNumber == 0 {
		r.NextNumber = 1
	}
	return markerRegex.ReplaceAllStringFunc(text, func(marker string) string {
		url := markerRegex.FindStringSubmatch(marker)[1]
		e, ok := r.Entries[url]
		if !ok {
			title := FallbackTitle
			if resolve != nil {
				if t, err := resolve(url); err == nil && t != "" {
					title = t
				}
			}
			e = Entry{Number: r.NextNumber, Title: title, URL: url}
			r.Entries[url] = e
			r.NextNumber++
		}
		return fmt.Sprintf("[%d](%s)", e.Number, e.URL)
	})
}

// Sources returns all entries ordered by assigned number.
func (r *Registry) Sources() []Entry {
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
