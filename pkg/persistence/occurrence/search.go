package occurrence

import "strings"

// Search is one word-count configuration. Terms are summed into a single
// count per document; an empty Terms list counts all words instead.
type Search struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// Total reports whether the search counts every word.
func (s Search) Total() bool {
	return len(s.Terms) == 0
}

// Tally returns the count s produces for one document's text.
func (s Search) Tally(text string) int {
	if s.Total() {
		return TotalWords(text)
	}
	return Count(text, s.Terms)
}

// Count sums the literal occurrences of " term " for every term. The text
// is padded with one space on each side so a term at the very start or end
// still matches. Matches of one term do not overlap each other.
func Count(text string, terms []string) int {
	padded := " " + text + " "
	n := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		n += strings.Count(padded, " "+term+" ")
	}
	return n
}

// TotalWords counts whitespace-delimited tokens.
func TotalWords(text string) int {
	return len(strings.Fields(text))
}
