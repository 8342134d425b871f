package highlight_test

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/highlight"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/terms"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

func newEngine(strict bool) *highlight.Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return highlight.NewEngine(config.HighlightConfig{StrictVisibility: strict}, logrus.NewEntry(logger))
}

func index(words ...string) *terms.Index {
	return terms.Build(vocab.FromStrings(words...))
}

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

func markerTexts(doc *dom.Document) []string {
	var out []string
	for _, n := range doc.ByClass(highlight.ClassMarker) {
		out = append(out, dom.TextContent(n))
	}
	return out
}

func TestHighlight_SingleMatchPreservesText(t *testing.T) {
	doc := parse(t, `<body><p id="p">A cat sat</p></body>`)

	res := newEngine(true).Highlight(doc, index("cat"))
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Markers, 1)

	mark := res.Markers[0]
	assert.Equal(t, "mark", mark.Data)
	term, _ := dom.Attr(mark, highlight.AttrTerm)
	assert.Equal(t, "cat", term)
	tabindex, _ := dom.Attr(mark, "tabindex")
	assert.Equal(t, "-1", tabindex)

	container := mark.Parent
	require.NotNil(t, container)
	assert.True(t, dom.HasClass(container, highlight.ClassContainer))
	assert.Equal(t, doc.ElementByID("p"), container.Parent)

	var parts []string
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, dom.TextContent(c))
	}
	assert.Equal(t, []string{"A ", "cat", " sat"}, parts)
	assert.Equal(t, "A cat sat", dom.TextContent(doc.ElementByID("p")))
}

func TestHighlight_CountsEveryOccurrence(t *testing.T) {
	doc := parse(t, `<body><p>軟件和視頻，軟件</p><p>沒有</p><div>視頻</div></body>`)

	res := newEngine(true).Highlight(doc, index("軟件", "視頻"))
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, []string{"軟件", "視頻", "軟件", "視頻"}, markerTexts(doc))
	assert.Len(t, doc.ByClass(highlight.ClassContainer), 2)
}

func TestHighlight_FirstMatchWins(t *testing.T) {
	doc := parse(t, `<body><p>cat sat</p></body>`)

	res := newEngine(true).Highlight(doc, index("cat", "at"))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"cat", "at"}, markerTexts(doc))

	// No nested markers inside already-wrapped regions
	for _, m := range doc.ByClass(highlight.ClassMarker) {
		assert.Equal(t, html.TextNode, m.FirstChild.Type)
		assert.Nil(t, m.FirstChild.NextSibling)
	}
}

func TestHighlight_LiteralMatching(t *testing.T) {
	doc := parse(t, `<body><p>axb a.b (x) x</p></body>`)

	res := newEngine(true).Highlight(doc, index("a.b", "(x)"))
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"a.b", "(x)"}, markerTexts(doc))
}

func TestHighlight_CaseSensitive(t *testing.T) {
	doc := parse(t, `<body><p>Cat cat CAT</p></body>`)
	res := newEngine(true).Highlight(doc, index("cat"))
	assert.Equal(t, 1, res.Count)
}

func TestHighlight_NoMatches(t *testing.T) {
	doc := parse(t, `<body><p>nothing here</p></body>`)
	before := doc.String()

	res := newEngine(true).Highlight(doc, index("cat"))
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Markers)
	assert.Empty(t, doc.ByClass(highlight.ClassContainer))

	newEngine(true).Clear(doc)
	assert.Equal(t, before, doc.String())
}

func TestHighlight_EmptyIndex(t *testing.T) {
	doc := parse(t, `<body><p>cat</p></body>`)
	res := newEngine(true).Highlight(doc, index())
	assert.Zero(t, res.Count)
	assert.Nil(t, doc.ElementByID(highlight.StylesheetID))
}

func TestHighlight_SkipsNonRenderedAndHidden(t *testing.T) {
	doc := parse(t, `<html><head><title>cat</title></head><body>
		<script>var cat = 1;</script>
		<style>.cat {}</style>
		<p style="display:none">cat</p>
		<p>cat</p>
	</body></html>`)

	assert.Equal(t, 1, newEngine(true).Highlight(doc, index("cat")).Count)
	assert.Equal(t, 2, newEngine(false).Highlight(doc, index("cat")).Count)
}

func TestHighlight_SkipsRawTextAndFallbackContent(t *testing.T) {
	doc := parse(t, `<body><p>cat</p>
		<noframes>a cat here</noframes>
		<noembed>a cat here</noembed>
		<iframe>a cat here</iframe>
		<xmp>a cat here</xmp>
	</body>`)

	for _, strict := range []bool{true, false} {
		assert.Equal(t, 1, newEngine(strict).Highlight(doc, index("cat")).Count)
	}

	out := doc.String()
	for _, raw := range []string{"<noframes>a cat here</noframes>", "<noembed>a cat here</noembed>", "<iframe>a cat here</iframe>", "<xmp>a cat here</xmp>"} {
		assert.Contains(t, out, raw)
	}
}

func TestHighlight_PreservesSiblingOrder(t *testing.T) {
	doc := parse(t, `<body><p id="p">one cat<b>bold</b>two cat<i>it</i></p></body>`)
	newEngine(true).Highlight(doc, index("cat"))

	var kinds []string
	for c := doc.ElementByID("p").FirstChild; c != nil; c = c.NextSibling {
		kinds = append(kinds, c.Data)
	}
	assert.Equal(t, []string{"span", "b", "span", "i"}, kinds)
}

func TestHighlight_Idempotent(t *testing.T) {
	doc := parse(t, `<body><p>cat and cat</p><p>a cat</p></body>`)
	engine := newEngine(true)

	first := engine.Highlight(doc, index("cat"))
	rendered := doc.String()
	second := engine.Highlight(doc, index("cat"))

	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, rendered, doc.String())
	assert.Len(t, doc.ByClass(highlight.ClassContainer), 2)
}

func TestHighlight_StylesheetInstalledOnce(t *testing.T) {
	doc := parse(t, `<html><head></head><body><p>cat</p></body></html>`)
	engine := newEngine(true)
	engine.Highlight(doc, index("cat"))
	engine.Highlight(doc, index("cat"))

	styles, err := doc.Query("#" + highlight.StylesheetID)
	require.NoError(t, err)
	require.Len(t, styles, 1)
	assert.Equal(t, "head", styles[0].Parent.Data)
	assert.Contains(t, dom.TextContent(styles[0]), ".vocab-highlight-current")
}

func TestClear_RoundTrip(t *testing.T) {
	pages := []string{
		`<html><head><title>t</title></head><body><p>A cat sat</p></body></html>`,
		`<body><div>軟件<span>視頻 and 軟件</span></div><ul><li>a.b</li><li>a*b &amp; c</li></ul></body>`,
		`<body><p>no match</p></body>`,
	}
	engine := newEngine(true)

	for _, page := range pages {
		doc := parse(t, page)
		before := doc.String()

		engine.Highlight(doc, index("cat", "軟件", "視頻", "a.b", "a*b"))
		engine.Clear(doc)

		assert.Equal(t, before, doc.String())
		assert.Empty(t, doc.ByClass(highlight.ClassMarker))
		assert.Nil(t, doc.ElementByID(highlight.StylesheetID))
	}
}

func TestClear_NoopWhenNothingHighlighted(t *testing.T) {
	doc := parse(t, `<body><p>text</p></body>`)
	before := doc.String()

	assert.Zero(t, newEngine(true).Clear(doc))
	assert.Equal(t, before, doc.String())
}

func TestClear_FlattensMutatedContainers(t *testing.T) {
	doc := parse(t, `<body><p id="p">cat and dog</p></body>`)
	engine := newEngine(true)
	res := engine.Highlight(doc, index("cat", "dog"))
	require.Len(t, res.Markers, 2)

	// A page script drops one marker; clearing keeps whatever text remains
	dom.Remove(res.Markers[1])
	engine.Clear(doc)

	p := doc.ElementByID("p")
	assert.Equal(t, "cat and ", dom.TextContent(p))
	assert.True(t, strings.HasPrefix(doc.String(), "<html>"))
}
