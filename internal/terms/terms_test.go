package terms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/terms"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

func texts(idx *terms.Index) []string {
	var out []string
	for _, t := range idx.Terms() {
		out = append(out, t.Text)
	}
	return out
}

func TestBuild_DedupesAndKeepsOrder(t *testing.T) {
	entries := []vocab.Entry{
		{SourceTerm: "軟件", TargetTerm: "軟體"},
		{SourceTerm: "視頻"},
		{SourceTerm: "軟件", TargetTerm: "other"},
		{TargetTerm: "滑鼠"},
		{GlossTerm: "no term"},
		{},
		{SourceTerm: "\xff"},
	}

	idx := terms.Build(entries)
	assert.Equal(t, []string{"軟件", "視頻", "滑鼠"}, texts(idx))
	assert.Equal(t, 3, idx.Len())

	entry, ok := idx.Lookup("軟件")
	require.True(t, ok)
	assert.Equal(t, "軟體", entry.TargetTerm)

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)
}

func TestBuild_SkipsInvalidUTF8(t *testing.T) {
	var idx *terms.Index
	require.NotPanics(t, func() {
		idx = terms.Build(vocab.FromStrings("ok", "\xff", "bad\xc3"))
	})
	assert.Equal(t, []string{"ok"}, texts(idx))

	_, ok := idx.Lookup("\xff")
	assert.False(t, ok)
}

func TestBuild_Empty(t *testing.T) {
	idx := terms.Build(nil)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Terms())
}

func TestBuild_Deterministic(t *testing.T) {
	entries := vocab.FromStrings("c", "a", "b", "a")
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"c", "a", "b"}, texts(terms.Build(entries)))
	}
}

func TestEscape_MatchesLiterally(t *testing.T) {
	tests := []struct {
		term    string
		text    string
		matches bool
	}{
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"a*", "aaa", false},
		{"a*", "a*", true},
		{"(x)", "(x)", true},
		{"(x)", "x", false},
		{"$5+", "costs $5+", true},
		{"[ab]", "a", false},
		{`\d`, `\d`, true},
		{"^a|b$", "^a|b$", true},
		{"{2}?", "{2}?", true},
	}

	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.text, func(t *testing.T) {
			idx := terms.Build(vocab.FromStrings(tt.term))
			require.Equal(t, 1, idx.Len())
			assert.Equal(t, tt.matches, idx.Terms()[0].Regexp().MatchString(tt.text))
		})
	}
}

func TestTerms_ReturnsCopy(t *testing.T) {
	idx := terms.Build(vocab.FromStrings("a", "b"))
	got := idx.Terms()
	got[0].Text = "mutated"
	assert.Equal(t, "a", idx.Terms()[0].Text)
}
