package humanize

import (
	"strings"
	"unicode/utf8"
)

// Counts holds the word and character totals shown under a text pane.
type Counts struct {
	Words int `json:"words" yaml:"words"`
	Chars int `json:"chars" yaml:"chars"`
}

// Count returns the word and character counts of text.
// Words are whitespace-separated runs; characters are runes of the untrimmed text.
func Count(text string) Counts {
	return Counts{
		Words: len(strings.Fields(text)),
		Chars: utf8.RuneCountInString(text),
	}
}
