// Package bars turns streamed freestyle text into the short list of lines
// ("bars") shown to the user.
package bars

import "strings"

// Filter selects bars from generated text. A line is a bar when it contains
// none of the Markers and splits on single spaces into at least MinWords
// parts. At most Max bars are kept; Max <= 0 keeps them all.
type Filter struct {
	Markers  []string
	MinWords int
	Max      int
}

// DefaultFilter drops section headings such as "Verse 1" or "Chorus:",
// anything with a colon, and fragments of fewer than three words, keeping
// the first eight bars.
func DefaultFilter() Filter {
	return Filter{
		Markers:  []string{"Verse", "Chorus", ":"},
		MinWords: 3,
		Max:      8,
	}
}

// Apply returns the bars in text, in order. Lines are returned as written.
func (f Filter) Apply(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if f.Max > 0 && len(out) >= f.Max {
			break
		}
		if f.Keep(line) {
			out = append(out, line)
		}
	}
	return out
}

// Keep reports whether a single line qualifies as a bar.
func (f Filter) Keep(line string) bool {
	for _, m := range f.Markers {
		if m != "" && strings.Contains(line, m) {
			return false
		}
	}
	// Splitting on single spaces means runs of spaces count as words,
	// which is how the page has always counted them.
	return len(strings.Split(line, " ")) >= f.MinWords
}
