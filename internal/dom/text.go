package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nonRendered lists elements whose text never shows as page content,
// including raw-text and fallback elements browsers never lay out.
var nonRendered = map[atom.Atom]bool{
	atom.Script:    true,
	atom.Style:     true,
	atom.Head:      true,
	atom.Meta:      true,
	atom.Link:      true,
	atom.Title:     true,
	atom.Noscript:  true,
	atom.Template:  true,
	atom.Textarea:  true,
	atom.Iframe:    true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Xmp:       true,
	atom.Plaintext: true,
}

// offscreenThreshold is how far past the top/left edge a positioned element
// must sit to count as moved off-screen.
const offscreenThreshold = -1000

// TextNodes returns the non-whitespace text leaves under root in document
// order, skipping non-rendered elements. With strict set, text under
// invisible elements is skipped too.
func TextNodes(root *html.Node, strict bool) []*html.Node {
	var nodes []*html.Node
	Walk(root, func(n *html.Node) bool {
		switch n.Type {
		case html.ElementNode:
			if nonRendered[n.DataAtom] {
				return false
			}
			// hidden boxes take their subtree with them
			if strict && hiddenBox(n, ParseStyle(n)) {
				return false
			}
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				return false
			}
			if strict && !Renderable(n, true) {
				return false
			}
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// Renderable reports whether n sits outside every non-rendered element and,
// with strict set, every invisible ancestor. It re-derives the answer from
// the node's current ancestry.
func Renderable(n *html.Node, strict bool) bool {
	visibilityDecided := false
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if nonRendered[p.DataAtom] {
			return false
		}
		if !strict {
			continue
		}
		style := ParseStyle(p)
		if hiddenBox(p, style) {
			return false
		}
		// visibility inherits: the nearest declaration decides
		if v, ok := style["visibility"]; ok && !visibilityDecided {
			visibilityDecided = true
			if v == "hidden" || v == "collapse" {
				return false
			}
		}
	}
	return true
}

// hiddenBox reports styles that hide an element together with its subtree.
func hiddenBox(n *html.Node, style map[string]string) bool {
	if _, ok := Attr(n, "hidden"); ok {
		return true
	}
	if style["display"] == "none" {
		return true
	}
	if v, ok := style["opacity"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f <= 0 {
			return true
		}
	}
	if isZeroLength(style["width"]) || isZeroLength(style["height"]) {
		return true
	}
	if pos := style["position"]; pos == "absolute" || pos == "fixed" {
		if isOffscreen(style["left"]) || isOffscreen(style["top"]) {
			return true
		}
	}
	return false
}

// ParseStyle splits an inline style attribute into lower-cased declarations.
func ParseStyle(n *html.Node) map[string]string {
	raw, ok := Attr(n, "style")
	if !ok || raw == "" {
		return nil
	}
	decls := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if name != "" {
			decls[name] = value
		}
	}
	return decls
}

func isZeroLength(v string) bool {
	if v == "" {
		return false
	}
	f, ok := parseLength(v)
	return ok && f == 0
}

func isOffscreen(v string) bool {
	f, ok := parseLength(v)
	return ok && f <= offscreenThreshold
}

// lengthUnits maps CSS units to pixels. Longer suffixes come first so "rem"
// is not read as "em". Relative units without a fixed size keep their number.
var lengthUnits = []struct {
	suffix string
	px     float64
}{
	{"rem", 16},
	{"px", 1},
	{"em", 16},
	{"pt", 96.0 / 72.0},
	{"vh", 1},
	{"vw", 1},
	{"%", 1},
}

// parseLength reads a CSS length such as "-9999px", "-100rem" or "0" in pixels.
func parseLength(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	scale := 1.0
	for _, unit := range lengthUnits {
		if strings.HasSuffix(v, unit.suffix) {
			v = v[:len(v)-len(unit.suffix)]
			scale = unit.px
			break
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}
