package navigation_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/highlight"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/navigation"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/terms"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

type MockEffects struct {
	mock.Mock
}

func (m *MockEffects) ScrollIntoView(n *html.Node) { m.Called(n) }
func (m *MockEffects) Focus(n *html.Node)          { m.Called(n) }

type MockPresenter struct {
	mock.Mock
}

func (m *MockPresenter) Present(marker navigation.Marker) { m.Called(marker) }

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(logger)
}

func navConfig() config.NavigationConfig {
	return config.NavigationConfig{
		AutoScanCooldown: 30 * time.Second,
		GracePeriod:      0,
	}
}

// setup highlights "cat" in the given page and returns a reconciled controller
func setup(t *testing.T, page string) (*dom.Document, *navigation.Controller) {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	engine := highlight.NewEngine(config.HighlightConfig{StrictVisibility: true}, testLogger())
	engine.Highlight(doc, terms.Build(vocab.FromStrings("cat")))

	c := navigation.NewController(doc, navConfig(), testLogger())
	c.Reconcile()
	return doc, c
}

const threeCats = `<body><p>cat one</p><p>cat two</p><p>cat three</p></body>`

func TestReconcile_AssignsIDsInDocumentOrder(t *testing.T) {
	_, c := setup(t, threeCats)

	markers := c.Markers()
	require.Len(t, markers, 3)
	for i, m := range markers {
		assert.Equal(t, i, m.ID)
		assert.Equal(t, "cat", m.Term)
		id, _ := dom.Attr(m.Node, highlight.AttrHighlightID)
		assert.Equal(t, strconv.Itoa(i), id)
	}
	for i := 1; i < len(markers); i++ {
		assert.Equal(t, -1, dom.Compare(markers[i-1].Node, markers[i].Node))
	}
	assert.Equal(t, navigation.Unset, c.Cursor())
	assert.True(t, c.Verify())
}

func TestNext_WrapsAround(t *testing.T) {
	_, c := setup(t, threeCats)

	var got []int
	for i := 0; i < 4; i++ {
		pos, err := c.Next()
		require.NoError(t, err)
		assert.Equal(t, 3, pos.Total)
		got = append(got, pos.Index)
	}
	assert.Equal(t, []int{0, 1, 2, 0}, got)
}

func TestNext_CyclicInvariant(t *testing.T) {
	_, c := setup(t, threeCats)

	start, err := c.Next()
	require.NoError(t, err)
	var pos navigation.Position
	for i := 0; i < start.Total; i++ {
		pos, err = c.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, start.Index, pos.Index)
}

func TestPrevious_InverseOfNext(t *testing.T) {
	_, c := setup(t, threeCats)

	_, err := c.Next()
	require.NoError(t, err)
	before, err := c.Next()
	require.NoError(t, err)

	_, err = c.Next()
	require.NoError(t, err)
	after, err := c.Previous()
	require.NoError(t, err)

	assert.Equal(t, before.Index, after.Index)
}

func TestPrevious_FromUnsetGoesToLast(t *testing.T) {
	_, c := setup(t, threeCats)

	pos, err := c.Previous()
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Index)

	pos, err = c.Previous()
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Index)
}

func TestNext_MarksCurrent(t *testing.T) {
	_, c := setup(t, threeCats)

	_, err := c.Next()
	require.NoError(t, err)
	_, err = c.Next()
	require.NoError(t, err)

	markers := c.Markers()
	assert.False(t, dom.HasClass(markers[0].Node, highlight.ClassCurrent))
	assert.True(t, dom.HasClass(markers[1].Node, highlight.ClassCurrent))
	current, _ := dom.Attr(markers[1].Node, "aria-current")
	assert.Equal(t, "true", current)
	_, ok := dom.Attr(markers[0].Node, "aria-current")
	assert.False(t, ok)
}

func TestNext_NoHighlights(t *testing.T) {
	doc, err := dom.ParseString(`<body><p>nothing</p></body>`)
	require.NoError(t, err)
	c := navigation.NewController(doc, navConfig(), testLogger())

	_, err = c.Next()
	assert.ErrorIs(t, err, navigation.ErrNoHighlights)
	_, err = c.Previous()
	assert.ErrorIs(t, err, navigation.ErrNoHighlights)
	assert.False(t, c.Guard().Active())
}

func TestNext_ReconcilesWhenEmpty(t *testing.T) {
	doc, err := dom.ParseString(threeCats)
	require.NoError(t, err)
	c := navigation.NewController(doc, navConfig(), testLogger())

	// Highlights appear without the controller being told
	highlight.NewEngine(config.HighlightConfig{}, testLogger()).Highlight(doc, terms.Build(vocab.FromStrings("cat")))

	pos, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, navigation.Position{Index: 0, Total: 3}, pos)
}

func TestNext_CurrentMarkerRemoved(t *testing.T) {
	_, c := setup(t, threeCats)

	pos, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, 0, pos.Index)

	// A page script removes the marker under the cursor
	dom.Remove(c.Markers()[pos.Index].Node)

	pos, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Total)
	assert.GreaterOrEqual(t, pos.Index, 0)
	assert.Less(t, pos.Index, pos.Total)

	m, ok := c.MarkerByID(pos.Index)
	require.True(t, ok)
	assert.Equal(t, "cat two", dom.TextContent(m.Node.Parent.Parent))
	assert.True(t, c.Verify())
}

func TestNext_TargetRemoved(t *testing.T) {
	_, c := setup(t, threeCats)

	_, err := c.Next()
	require.NoError(t, err)

	// Remove the marker the next step would land on
	dom.Remove(c.Markers()[1].Node)

	pos, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, navigation.Position{Index: 1, Total: 2}, pos)
	m, ok := c.MarkerByID(1)
	require.True(t, ok)
	assert.Equal(t, "cat three", dom.TextContent(m.Node.Parent.Parent))
}

func TestNext_TargetRemovedAtEndWraps(t *testing.T) {
	_, c := setup(t, threeCats)

	_, err := c.Next()
	require.NoError(t, err)
	_, err = c.Next()
	require.NoError(t, err)

	dom.Remove(c.Markers()[2].Node)

	pos, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, navigation.Position{Index: 0, Total: 2}, pos)
}

func TestPrevious_TargetRemovedClampsToLast(t *testing.T) {
	_, c := setup(t, threeCats)

	// Unset → last; the last marker is gone
	dom.Remove(c.Markers()[2].Node)

	pos, err := c.Previous()
	require.NoError(t, err)
	assert.Equal(t, navigation.Position{Index: 1, Total: 2}, pos)
}

func TestNext_AllMarkersRemoved(t *testing.T) {
	doc, c := setup(t, threeCats)

	_, err := doc.RemoveMatching("." + highlight.ClassMarker)
	require.NoError(t, err)

	_, err = c.Next()
	assert.ErrorIs(t, err, navigation.ErrNavigationTargetLost)
	assert.Zero(t, c.Len())

	// A later attempt reconciles from scratch and reports no highlights
	_, err = c.Next()
	assert.ErrorIs(t, err, navigation.ErrNoHighlights)
}

func TestNext_EffectsAndPresenter(t *testing.T) {
	doc, err := dom.ParseString(threeCats)
	require.NoError(t, err)
	highlight.NewEngine(config.HighlightConfig{}, testLogger()).Highlight(doc, terms.Build(vocab.FromStrings("cat")))

	cfg := navConfig()
	cfg.PresentOnNavigate = true
	c := navigation.NewController(doc, cfg, testLogger())
	c.Reconcile()

	effects := new(MockEffects)
	presenter := new(MockPresenter)
	first := c.Markers()[0]
	effects.On("ScrollIntoView", first.Node).Once()
	effects.On("Focus", first.Node).Once()
	presenter.On("Present", mock.MatchedBy(func(m navigation.Marker) bool {
		return m.ID == 0 && m.Term == "cat"
	})).Once()

	c.SetEffects(effects)
	c.SetPresenter(presenter)

	_, err = c.Next()
	require.NoError(t, err)
	effects.AssertExpectations(t)
	presenter.AssertExpectations(t)
}

func TestReconcile_ClampsCursor(t *testing.T) {
	doc, c := setup(t, threeCats)

	for i := 0; i < 3; i++ {
		_, err := c.Next()
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Cursor())

	_, err := doc.RemoveMatching("p:nth-child(3) ." + highlight.ClassMarker)
	require.NoError(t, err)
	c.Reconcile()

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Cursor())
}

func TestReset(t *testing.T) {
	_, c := setup(t, threeCats)
	_, err := c.Next()
	require.NoError(t, err)

	c.Reset()
	assert.Zero(t, c.Len())
	assert.Equal(t, navigation.Unset, c.Cursor())
}

func TestVerify_DetectsDrift(t *testing.T) {
	doc, c := setup(t, threeCats)
	assert.True(t, c.Verify())

	dom.Remove(c.Markers()[0].Node)
	assert.False(t, c.Verify())

	c.Reconcile()
	assert.True(t, c.Verify())
	assert.Len(t, doc.ByClass(highlight.ClassMarker), 2)
}
