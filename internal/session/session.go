// Package session binds one loaded document to its highlight, navigation and
// presentation state and serves the command channel for it.
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/highlight"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/messages"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/navigation"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/presenter"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/terms"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

// VocabularySource supplies the vocabulary used when a scan carries none
type VocabularySource interface {
	Vocabulary(ctx context.Context) ([]vocab.Entry, error)
}

// Options configures a new session
type Options struct {
	ID       string
	URL      string
	Title    string
	Locale   string
	Document *dom.Document
	Config   *config.Config
	Catalog  *messages.Catalog
	Source   VocabularySource
	Renderer presenter.Renderer
}

// Info describes a session
type Info struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status is a snapshot of the highlight and navigation state. Integrity is
// false when the page changed markers behind the tracked sequence.
type Status struct {
	Info
	HighlightCount int  `json:"highlightCount"`
	Cursor         int  `json:"cursor"`
	Integrity      bool `json:"integrity"`
}

// Session serializes every command against its document
type Session struct {
	info    Info
	doc     *dom.Document
	catalog *messages.Catalog
	source  VocabularySource
	logger  *logrus.Entry

	highlighter *highlight.Engine
	nav         *navigation.Controller
	popup       *presenter.Popup

	mu    sync.Mutex
	index *terms.Index
}

// New creates a session over opts.Document
func New(opts Options, logger *logrus.Entry) *Session {
	locale := opts.Config.Server.DefaultLocale
	if opts.Locale != "" {
		locale = opts.Locale
	}
	logger = logger.WithField("session", opts.ID)

	s := &Session{
		info: Info{
			ID:        opts.ID,
			URL:       opts.URL,
			Title:     opts.Title,
			Locale:    opts.Catalog.Resolve(locale),
			CreatedAt: time.Now().UTC(),
		},
		doc:         opts.Document,
		catalog:     opts.Catalog,
		source:      opts.Source,
		logger:      logger.WithField("component", "session"),
		highlighter: highlight.NewEngine(opts.Config.Highlight, logger),
		nav:         navigation.NewController(opts.Document, opts.Config.Navigation, logger),
		popup:       presenter.NewPopup(opts.Config.Presenter, opts.Renderer, logger),
		index:       terms.Build(nil),
	}
	s.nav.SetPresenter(navPresenter{s})
	return s
}

// Info returns the session metadata
func (s *Session) Info() Info {
	return s.info
}

// Handle executes one command. Failures, including panics, become a
// FailureResponse.
func (s *Session) Handle(ctx context.Context, req Request) (resp any) {
	logger := s.logger.WithField("action", req.Action)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Command panicked")
			resp = FailureResponse{Message: fmt.Sprintf("%s: %v", req.Action, r)}
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	logger.WithField("auto", req.IsAutoScan).Debug("Handling command")

	switch req.Action {
	case ActionPing:
		return PingResponse{Loaded: true}
	case ActionScan:
		return s.scan(ctx, req, logger)
	case ActionClear:
		return s.clear()
	case ActionNext:
		return s.next(logger)
	case ActionPrevious:
		return s.previous(logger)
	default:
		return FailureResponse{Message: s.msg("unknownAction", req.Action)}
	}
}

func (s *Session) scan(ctx context.Context, req Request, logger *logrus.Entry) any {
	if req.IsAutoScan && s.nav.Guard().ShouldSkipAutoScan() {
		logger.Debug("Skipping auto-scan during navigation")
		return ScanResponse{
			Success:          true,
			Message:          s.msg("scanSkipped"),
			HighlightedCount: s.nav.Len(),
			Skipped:          true,
		}
	}

	entries, err := s.entries(ctx, req.VocabData, logger)
	if err != nil {
		logger.WithError(err).Warn("Scan failed")
		return FailureResponse{Message: s.msg("scanFailed", err.Error())}
	}

	s.popup.Dismiss()
	s.nav.Reset()
	s.index = terms.Build(entries)
	result := s.highlighter.Highlight(s.doc, s.index)
	s.nav.Reconcile()

	logger.WithFields(logrus.Fields{
		"terms":       s.index.Len(),
		"highlighted": result.Count,
	}).Debug("Scan completed")

	return ScanResponse{
		Success:          true,
		Message:          s.msg("scanCompleted", strconv.Itoa(result.Count)),
		HighlightedCount: result.Count,
	}
}

// entries decodes inline vocabulary, falling back to the default source
// when the request carries none.
func (s *Session) entries(ctx context.Context, raw []byte, logger *logrus.Entry) ([]vocab.Entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if s.source == nil {
			return nil, nil
		}
		return s.source.Vocabulary(ctx)
	}

	entries, skipped, err := vocab.ParseEntries(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid vocabData: %w", err)
	}
	if skipped > 0 {
		logger.WithField("skipped", skipped).Debug("Skipped malformed vocabulary rows")
	}
	return entries, nil
}

func (s *Session) clear() any {
	s.popup.Dismiss()
	s.highlighter.Clear(s.doc)
	s.nav.Reset()
	s.index = terms.Build(nil)
	return ClearResponse{Success: true, Message: s.msg("highlightsCleared")}
}

func (s *Session) next(logger *logrus.Entry) any {
	pos, err := s.nav.Next()
	if err != nil {
		logger.WithError(err).Warn("Navigation failed")
		return FailureResponse{Message: s.msg("highlightNavigationFailed", err.Error())}
	}
	return NextResponse{
		Success:      true,
		CurrentIndex: pos.Index,
		TotalCount:   pos.Total,
		HasNext:      pos.Total > 0,
		Message:      s.position(pos),
	}
}

func (s *Session) previous(logger *logrus.Entry) any {
	pos, err := s.nav.Previous()
	if err != nil {
		logger.WithError(err).Warn("Navigation failed")
		return FailureResponse{Message: s.msg("highlightNavigationFailed", err.Error())}
	}
	return PreviousResponse{
		Success:      true,
		CurrentIndex: pos.Index,
		TotalCount:   pos.Total,
		HasPrevious:  pos.Total > 0,
		Message:      s.position(pos),
	}
}

func (s *Session) position(pos navigation.Position) string {
	return s.msg("highlightNavigation", strconv.Itoa(pos.Index+1), strconv.Itoa(pos.Total))
}

func (s *Session) msg(key string, args ...string) string {
	return s.catalog.Format(s.info.Locale, key, args...)
}

// HighlightCount returns the number of tracked markers
func (s *Session) HighlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Len()
}

// Status reports the session state without healing the tracked sequence
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Info:           s.info,
		HighlightCount: s.nav.Len(),
		Cursor:         s.nav.Cursor(),
		Integrity:      s.nav.Verify(),
	}
}

// Render writes the current document
func (s *Session) Render(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Render(w)
}

// RemoveMatching detaches every node matching selector, as a page script
// would. Navigation state is not told about it.
func (s *Session) RemoveMatching(selector string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.doc.RemoveMatching(selector)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{
		"selector": selector,
		"removed":  n,
	}).Debug("Applied external mutation")
	return n, nil
}

// Detail returns the visible term detail
func (s *Session) Detail() (presenter.Detail, bool) {
	return s.popup.Current()
}

// DismissDetail hides the term detail
func (s *Session) DismissDetail() {
	s.popup.Dismiss()
}

// Close releases timers held by the session
func (s *Session) Close() {
	s.popup.Close()
	s.nav.Guard().Stop()
}

func (s *Session) detailFor(m navigation.Marker, trigger presenter.Trigger) presenter.Detail {
	entry, ok := s.index.Lookup(m.Term)
	if !ok {
		entry = vocab.Entry{SourceTerm: m.Term}
	}
	return presenter.Detail{
		Term:     m.Term,
		Entry:    entry,
		AnchorID: m.ID,
		Trigger:  trigger,
	}
}

// navPresenter shows details for navigation. It runs inside Handle, with
// the session lock held.
type navPresenter struct {
	s *Session
}

func (p navPresenter) Present(m navigation.Marker) {
	p.s.popup.Show(p.s.detailFor(m, presenter.TriggerNavigation))
}
