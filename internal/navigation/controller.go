// Package navigation keeps the ordered view of highlight markers and moves a
// cursor through it, healing the view when the document changes underneath.
package navigation

import (
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/highlight"
)

var (
	// ErrNoHighlights is returned when there is nothing to navigate to, even after reconciling
	ErrNoHighlights = errors.New("no highlights found on the page")
	// ErrNavigationTargetLost is returned when the cursor target stays detached after one reconciliation
	ErrNavigationTargetLost = errors.New("could not find valid highlight to navigate to")
)

// Unset is the cursor value before any marker has been visited.
const Unset = -1

// Marker is one highlighted occurrence
type Marker struct {
	ID   int
	Term string
	Node *html.Node
}

// Position is the outcome of a navigation step
type Position struct {
	Index int
	Total int
}

// Effects performs the visual side effects of moving to a marker.
type Effects interface {
	ScrollIntoView(n *html.Node)
	Focus(n *html.Node)
}

// Presenter shows term details for the marker navigated to.
type Presenter interface {
	Present(m Marker)
}

type noEffects struct{}

func (noEffects) ScrollIntoView(*html.Node) {}
func (noEffects) Focus(*html.Node)          {}

// Controller owns the navigation state of one document. It is not safe for
// concurrent use; the owning session serializes calls.
type Controller struct {
	doc       *dom.Document
	config    config.NavigationConfig
	logger    *logrus.Entry
	guard     *Guard
	effects   Effects
	presenter Presenter

	markers []Marker
	cursor  int
}

// NewController creates a controller over doc
func NewController(doc *dom.Document, cfg config.NavigationConfig, logger *logrus.Entry) *Controller {
	return &Controller{
		doc:     doc,
		config:  cfg,
		logger:  logger.WithField("component", "navigation"),
		guard:   NewGuard(cfg.AutoScanCooldown, cfg.GracePeriod),
		effects: noEffects{},
		cursor:  Unset,
	}
}

// SetEffects installs the scroll/focus handler.
func (c *Controller) SetEffects(e Effects) {
	if e == nil {
		e = noEffects{}
	}
	c.effects = e
}

// SetPresenter installs the term detail presenter. It is only invoked when
// PresentOnNavigate is enabled.
func (c *Controller) SetPresenter(p Presenter) {
	c.presenter = p
}

// Guard returns the advisory lock consulted by auto-scans.
func (c *Controller) Guard() *Guard {
	return c.guard
}

// Reconcile rebuilds the marker sequence from the live document.
func (c *Controller) Reconcile() {
	hadMarkers := len(c.markers) > 0

	var nodes []*html.Node
	for _, n := range c.doc.ByClass(highlight.ClassMarker) {
		if c.doc.Contains(n) {
			nodes = append(nodes, n)
		}
	}
	dom.SortInDocumentOrder(nodes)

	markers := make([]Marker, len(nodes))
	for i, n := range nodes {
		term, _ := dom.Attr(n, highlight.AttrTerm)
		dom.SetAttr(n, highlight.AttrHighlightID, strconv.Itoa(i))
		markers[i] = Marker{ID: i, Term: term, Node: n}
	}
	c.markers = markers

	switch {
	case !hadMarkers || len(markers) == 0:
		c.cursor = Unset
	case c.cursor >= len(markers):
		c.cursor = len(markers) - 1
	}

	c.logger.WithFields(logrus.Fields{
		"markers": len(markers),
		"cursor":  c.cursor,
	}).Debug("Reconciled highlights")
}

// Reset discards all navigation state.
func (c *Controller) Reset() {
	c.markers = nil
	c.cursor = Unset
}

// Next moves to the following marker, wrapping to the first.
func (c *Controller) Next() (Position, error) {
	return c.step(1)
}

// Previous moves to the preceding marker, wrapping to the last.
func (c *Controller) Previous() (Position, error) {
	return c.step(-1)
}

func (c *Controller) step(dir int) (pos Position, err error) {
	c.guard.Begin()
	defer func() { c.guard.End(err == nil) }()

	if len(c.markers) == 0 {
		c.Reconcile()
		if len(c.markers) == 0 {
			return Position{}, ErrNoHighlights
		}
	}

	stale := 0
	for _, m := range c.markers {
		dom.RemoveClass(m.Node, highlight.ClassCurrent)
		dom.RemoveAttr(m.Node, "aria-current")
		if !c.doc.Contains(m.Node) {
			stale++
		}
	}

	c.cursor = wrap(c.cursor+dir, len(c.markers))
	target := c.markers[c.cursor].Node

	if !c.doc.Contains(target) {
		c.logger.WithField("cursor", c.cursor).Debug("Highlight no longer in document, reconciling")
		want := c.cursor
		c.Reconcile()
		if len(c.markers) == 0 {
			return Position{}, ErrNavigationTargetLost
		}
		switch {
		case want < len(c.markers):
			c.cursor = want
		case dir > 0:
			c.cursor = 0
		default:
			c.cursor = len(c.markers) - 1
		}
		target = c.markers[c.cursor].Node
		if !c.doc.Contains(target) {
			return Position{}, ErrNavigationTargetLost
		}
	} else if stale > 0 {
		// Drop detached markers so the total only counts live ones
		c.Reconcile()
		c.cursor = c.indexOf(target)
	}

	marker := c.markers[c.cursor]
	dom.AddClass(marker.Node, highlight.ClassCurrent)
	dom.SetAttr(marker.Node, "aria-current", "true")
	c.effects.ScrollIntoView(marker.Node)
	c.effects.Focus(marker.Node)
	if c.config.PresentOnNavigate && c.presenter != nil {
		c.presenter.Present(marker)
	}

	return Position{Index: c.cursor, Total: len(c.markers)}, nil
}

func (c *Controller) indexOf(n *html.Node) int {
	for i, m := range c.markers {
		if m.Node == n {
			return i
		}
	}
	return 0
}

func wrap(i, n int) int {
	if i >= n {
		return 0
	}
	if i < 0 {
		return n - 1
	}
	return i
}

// Cursor returns the current index or Unset.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Len returns the number of tracked markers.
func (c *Controller) Len() int {
	return len(c.markers)
}

// Markers returns the tracked markers that are still attached.
func (c *Controller) Markers() []Marker {
	out := make([]Marker, 0, len(c.markers))
	for _, m := range c.markers {
		if c.doc.Contains(m.Node) {
			out = append(out, m)
		}
	}
	return out
}

// MarkerByID resolves a marker by its positional id.
func (c *Controller) MarkerByID(id int) (Marker, bool) {
	if id < 0 || id >= len(c.markers) {
		return Marker{}, false
	}
	m := c.markers[id]
	if !c.doc.Contains(m.Node) {
		return Marker{}, false
	}
	return m, true
}

// Verify reports whether the tracked sequence still matches the live
// document: every tracked marker attached and none missing.
func (c *Controller) Verify() bool {
	live := c.doc.ByClass(highlight.ClassMarker)
	if len(live) != len(c.markers) {
		return false
	}
	for _, m := range c.markers {
		if !c.doc.Contains(m.Node) {
			return false
		}
	}
	return true
}
