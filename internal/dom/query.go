package dom

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Query returns the elements under the document root matching a CSS selector.
func (d *Document) Query(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return goquery.NewDocumentFromNode(d.root).FindMatcher(sel).Nodes, nil
}

// ByClass returns the elements carrying class, in document order.
func (d *Document) ByClass(class string) []*html.Node {
	return goquery.NewDocumentFromNode(d.root).Find("." + class).Nodes
}

// RemoveMatching detaches every element matching selector and reports how many were removed.
func (d *Document) RemoveMatching(selector string) (int, error) {
	nodes, err := d.Query(selector)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
			removed++
		}
	}
	return removed, nil
}
