// Package highlight wraps vocabulary matches in a document with marker elements.
package highlight

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/terms"
)

// Engine finds term occurrences in text nodes and replaces them with markers
type Engine struct {
	config config.HighlightConfig
	logger *logrus.Entry
}

// Result describes one highlight pass
type Result struct {
	Count   int          // one per inserted marker
	Markers []*html.Node // in insertion order
}

// NewEngine creates a highlight engine
func NewEngine(cfg config.HighlightConfig, logger *logrus.Entry) *Engine {
	return &Engine{
		config: cfg,
		logger: logger.WithField("component", "highlight_engine"),
	}
}

// Highlight clears any previous highlights, then wraps every occurrence of
// every term found in the document's rendered text.
func (e *Engine) Highlight(doc *dom.Document, idx *terms.Index) Result {
	e.Clear(doc)

	var result Result
	if idx == nil || idx.Len() == 0 {
		return result
	}

	list := idx.Terms()
	strict := e.config.StrictVisibility
	nodes := dom.TextNodes(doc.Body(), strict)
	skipped := 0

	for _, n := range nodes {
		if !containsAny(n.Data, list) {
			continue
		}
		// The tree may have changed since enumeration
		if !doc.Contains(n) || !dom.Renderable(n, strict) {
			skipped++
			continue
		}

		segments, count := splitMatches(n.Data, list)
		container := buildContainer(segments, &result.Markers)
		dom.Replace(n, container)
		result.Count += count
	}

	installStyles(doc)

	e.logger.WithFields(logrus.Fields{
		"terms":       len(list),
		"text_nodes":  len(nodes),
		"skipped":     skipped,
		"highlighted": result.Count,
	}).Debug("Highlight pass completed")

	return result
}

// Clear restores every highlight container to a plain text node and removes
// the stylesheet. It returns the number of containers restored.
func (e *Engine) Clear(doc *dom.Document) int {
	restored := 0
	for _, c := range doc.ByClass(ClassContainer) {
		if c.Parent == nil {
			continue
		}
		dom.Replace(c, dom.NewText(dom.TextContent(c)))
		restored++
	}
	if style := doc.ElementByID(StylesheetID); style != nil {
		dom.Remove(style)
	}
	if restored > 0 {
		e.logger.WithField("containers", restored).Debug("Highlights cleared")
	}
	return restored
}

type segment struct {
	text string
	term *terms.SearchTerm // nil for plain text
}

func containsAny(content string, list []terms.SearchTerm) bool {
	for _, t := range list {
		if strings.Contains(content, t.Text) {
			return true
		}
	}
	return false
}

// splitMatches cuts content into plain and matched segments. Terms apply in
// index order and already-matched segments are never re-split.
func splitMatches(content string, list []terms.SearchTerm) ([]segment, int) {
	segments := []segment{{text: content}}
	count := 0

	for i := range list {
		t := &list[i]
		if !strings.Contains(content, t.Text) {
			continue
		}

		next := make([]segment, 0, len(segments))
		for _, s := range segments {
			if s.term != nil {
				next = append(next, s)
				continue
			}
			locs := t.Regexp().FindAllStringIndex(s.text, -1)
			if locs == nil {
				next = append(next, s)
				continue
			}
			prev := 0
			for _, loc := range locs {
				if loc[0] > prev {
					next = append(next, segment{text: s.text[prev:loc[0]]})
				}
				next = append(next, segment{text: s.text[loc[0]:loc[1]], term: t})
				count++
				prev = loc[1]
			}
			if prev < len(s.text) {
				next = append(next, segment{text: s.text[prev:]})
			}
		}
		segments = next
	}
	return segments, count
}

func buildContainer(segments []segment, markers *[]*html.Node) *html.Node {
	container := dom.NewElement(atom.Span, html.Attribute{Key: "class", Val: ClassContainer})
	for _, s := range segments {
		if s.term == nil {
			container.AppendChild(dom.NewText(s.text))
			continue
		}
		mark := dom.NewElement(atom.Mark,
			html.Attribute{Key: "class", Val: ClassMarker},
			html.Attribute{Key: AttrTerm, Val: s.term.Text},
			html.Attribute{Key: "tabindex", Val: "-1"},
		)
		mark.AppendChild(dom.NewText(s.text))
		container.AppendChild(mark)
		*markers = append(*markers, mark)
	}
	return container
}

func installStyles(doc *dom.Document) {
	if doc.ElementByID(StylesheetID) != nil {
		return
	}
	style := dom.NewElement(atom.Style, html.Attribute{Key: "id", Val: StylesheetID})
	style.AppendChild(dom.NewText(stylesheet))
	doc.Head().AppendChild(style)
}
