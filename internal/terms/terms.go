// Package terms builds the literal search-term index from a vocabulary.
package terms

import (
	"regexp"
	"unicode/utf8"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

// SearchTerm is a literal string matched by exact, case-sensitive substring search.
type SearchTerm struct {
	Text    string
	Pattern string // Text with pattern metacharacters escaped
	Entry   vocab.Entry

	re *regexp.Regexp
}

// Regexp returns the compiled literal pattern.
func (t SearchTerm) Regexp() *regexp.Regexp {
	return t.re
}

// Index is the deduplicated, insertion-ordered set of search terms.
type Index struct {
	terms  []SearchTerm
	byText map[string]int
}

// Build derives the index from entries. Entries without a source or target
// term or whose term is not valid UTF-8 are skipped; the first entry for a
// given term wins.
func Build(entries []vocab.Entry) *Index {
	idx := &Index{
		terms:  make([]SearchTerm, 0, len(entries)),
		byText: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		text := e.Term()
		if text == "" || !utf8.ValidString(text) {
			continue
		}
		if _, seen := idx.byText[text]; seen {
			continue
		}
		pattern := Escape(text)
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		idx.byText[text] = len(idx.terms)
		idx.terms = append(idx.terms, SearchTerm{
			Text:    text,
			Pattern: pattern,
			Entry:   e,
			re:      re,
		})
	}
	return idx
}

// Escape quotes every pattern metacharacter so the result matches text literally.
func Escape(text string) string {
	return regexp.QuoteMeta(text)
}

// Terms returns the terms in index order.
func (idx *Index) Terms() []SearchTerm {
	out := make([]SearchTerm, len(idx.terms))
	copy(out, idx.terms)
	return out
}

func (idx *Index) Len() int {
	return len(idx.terms)
}

// Lookup returns the entry a term was derived from.
func (idx *Index) Lookup(text string) (vocab.Entry, bool) {
	i, ok := idx.byText[text]
	if !ok {
		return vocab.Entry{}, false
	}
	return idx.terms[i].Entry, true
}
