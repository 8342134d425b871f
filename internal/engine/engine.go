// Package engine orchestrates sessions, vocabulary and auto-scanning.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/autoscan"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/fetcher"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/messages"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/session"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/settings"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoDocument is returned when a session is opened with neither a URL nor markup
	ErrNoDocument = errors.New("url or html is required")
)

// OpenRequest describes the document a new session loads
type OpenRequest struct {
	URL    string `json:"url,omitempty"`
	HTML   string `json:"html,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// Engine owns the sessions and the shared collaborators they consume
type Engine struct {
	Config   *config.Config
	Logger   *logrus.Entry
	Fetcher  *fetcher.Fetcher
	Vocab    vocab.Provider
	Catalog  *messages.Catalog
	Settings settings.Store

	scheduler *autoscan.Scheduler

	mu       sync.RWMutex
	sessions map[string]*session.Session

	// Vocabulary is loaded on first use
	vocabMu sync.Mutex
	entries []vocab.Entry
	loaded  bool

	settingsMu sync.Mutex
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, provider vocab.Provider, store settings.Store) (*Engine, error) {
	catalog, err := messages.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	e := &Engine{
		Config:   cfg,
		Logger:   logger.WithField("component", "engine"),
		Fetcher:  fetcher.NewFetcher(cfg.Fetcher, logger),
		Vocab:    provider,
		Catalog:  catalog,
		Settings: store,
		sessions: make(map[string]*session.Session),
	}
	e.scheduler = autoscan.NewScheduler(cfg.AutoScan.Interval, e, logger)
	return e, nil
}

// Start restores persisted settings, resuming auto-scan when it was enabled.
func (e *Engine) Start() error {
	s, err := e.Settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if s.AutoScan {
		return e.scheduler.Start()
	}
	return nil
}

// OpenSession loads a document and registers a session for it
func (e *Engine) OpenSession(ctx context.Context, req OpenRequest) (*session.Session, error) {
	var page *fetcher.Page
	var err error
	switch {
	case req.HTML != "":
		source := req.URL
		if source == "" {
			source = "about:blank"
		}
		page, err = fetcher.FromHTML(req.HTML, source)
	case req.URL != "":
		page, err = e.Fetcher.Fetch(ctx, req.URL)
	default:
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	s := session.New(session.Options{
		ID:       uuid.NewString(),
		URL:      page.URL,
		Title:    page.Title,
		Locale:   req.Locale,
		Document: page.Document,
		Config:   e.Config,
		Catalog:  e.Catalog,
		Source:   e,
	}, e.Logger)

	e.mu.Lock()
	e.sessions[s.Info().ID] = s
	e.mu.Unlock()

	e.Logger.WithFields(logrus.Fields{
		"session": s.Info().ID,
		"url":     page.URL,
	}).Info("Opened session")
	return s, nil
}

// Session looks up a session by id
func (e *Engine) Session(id string) (*session.Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Sessions lists open sessions, oldest first
func (e *Engine) Sessions() []session.Info {
	e.mu.RLock()
	infos := make([]session.Info, 0, len(e.sessions))
	for _, s := range e.sessions {
		infos = append(infos, s.Info())
	}
	e.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// CloseSession removes a session and releases its timers
func (e *Engine) CloseSession(id string) error {
	e.mu.Lock()
	s, ok := e.sessions[id]
	delete(e.sessions, id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	e.Logger.WithField("session", id).Info("Closed session")
	return nil
}

// Dispatch delivers a command to a session
func (e *Engine) Dispatch(ctx context.Context, id string, req session.Request) (any, error) {
	s, err := e.Session(id)
	if err != nil {
		return nil, err
	}
	return s.Handle(ctx, req), nil
}

// ScanAll rescans every open session. Auto-scan failures are only logged at
// debug so they never reach the user.
func (e *Engine) ScanAll(ctx context.Context, auto bool) {
	e.mu.RLock()
	targets := make([]*session.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		targets = append(targets, s)
	}
	e.mu.RUnlock()

	for _, s := range targets {
		if ctx.Err() != nil {
			return
		}
		resp := s.Handle(ctx, session.Request{Action: session.ActionScan, IsAutoScan: auto})
		failure, failed := resp.(session.FailureResponse)
		if !failed {
			continue
		}
		logger := e.Logger.WithFields(logrus.Fields{
			"session": s.Info().ID,
			"auto":    auto,
		})
		if auto {
			logger.WithField("message", failure.Message).Debug("Auto-scan failed")
		} else {
			logger.WithField("message", failure.Message).Warn("Scan failed")
		}
	}
}

// SetAutoScan persists the auto-scan setting and starts or stops the scheduler.
func (e *Engine) SetAutoScan(enabled bool) error {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()

	s, err := e.Settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.AutoScan = enabled
	if err := e.Settings.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	switch {
	case enabled && !e.scheduler.Running():
		return e.scheduler.Start()
	case !enabled && e.scheduler.Running():
		return e.scheduler.Stop()
	}
	return nil
}

// AutoScanEnabled reports whether the scheduler is running
func (e *Engine) AutoScanEnabled() bool {
	return e.scheduler.Running()
}

// Vocabulary returns the default vocabulary, loading it on first use.
func (e *Engine) Vocabulary(ctx context.Context) ([]vocab.Entry, error) {
	e.vocabMu.Lock()
	defer e.vocabMu.Unlock()
	if e.loaded {
		return e.entries, nil
	}
	return e.loadLocked(ctx)
}

// ReloadVocabulary discards the loaded vocabulary and loads it again.
func (e *Engine) ReloadVocabulary(ctx context.Context) (int, error) {
	e.vocabMu.Lock()
	defer e.vocabMu.Unlock()
	entries, err := e.loadLocked(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (e *Engine) loadLocked(ctx context.Context) ([]vocab.Entry, error) {
	entries, err := e.Vocab.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary from %s: %w", e.Vocab.Name(), err)
	}
	e.entries = entries
	e.loaded = true
	e.Logger.WithFields(logrus.Fields{
		"source":  e.Vocab.Name(),
		"entries": len(entries),
	}).Info(e.Catalog.Format(e.Config.Server.DefaultLocale, "loadedVocabulary", fmt.Sprint(len(entries))))
	return entries, nil
}

// Close stops auto-scanning and closes every session
func (e *Engine) Close() {
	if e.scheduler.Running() {
		if err := e.scheduler.Stop(); err != nil {
			e.Logger.WithError(err).Warn("Failed to stop auto-scan")
		}
	}

	e.mu.Lock()
	sessions := e.sessions
	e.sessions = make(map[string]*session.Session)
	e.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
