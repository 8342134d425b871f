// Package presenter manages the term detail popup shown for a marker, with
// debounced hover show/hide tasks.
package presenter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/vocab"
)

// Trigger records what opened the popup
type Trigger string

const (
	TriggerNavigation Trigger = "navigation"
	TriggerHover      Trigger = "hover"
)

// Detail is the content of the popup, anchored to a marker
type Detail struct {
	Term     string      `json:"term"`
	Entry    vocab.Entry `json:"entry"`
	AnchorID int         `json:"anchorId"`
	Trigger  Trigger     `json:"trigger"`
}

// Renderer draws and removes the popup. Calls happen with the popup's lock
// held and must not call back into the popup.
type Renderer interface {
	Render(d Detail)
	Dismiss()
}

type noRenderer struct{}

func (noRenderer) Render(Detail) {}
func (noRenderer) Dismiss()      {}

// task is a pending delayed action. Cancelling the token before it fires
// drops the action.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Popup holds the visible detail and the pending hover tasks
type Popup struct {
	config   config.PresenterConfig
	logger   *logrus.Entry
	renderer Renderer

	mu       sync.Mutex
	current  *Detail
	showTask *task
	hideTask *task
}

// NewPopup creates a popup. A nil renderer keeps state only.
func NewPopup(cfg config.PresenterConfig, renderer Renderer, logger *logrus.Entry) *Popup {
	if renderer == nil {
		renderer = noRenderer{}
	}
	return &Popup{
		config:   cfg,
		renderer: renderer,
		logger:   logger.WithField("component", "popup"),
	}
}

// Show displays d immediately, cancelling any pending hover tasks.
func (p *Popup) Show(d Detail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(&p.showTask)
	p.cancelLocked(&p.hideTask)
	p.showLocked(d)
}

// HoverEnter schedules d to show after the show delay. A pending hide is
// cancelled so moving between marker and popup keeps it open.
func (p *Popup) HoverEnter(d Detail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(&p.hideTask)
	p.cancelLocked(&p.showTask)
	p.showTask = p.scheduleLocked(p.config.ShowDelay, func() {
		p.showLocked(d)
	})
}

// HoverLeave schedules the popup to hide after the hide delay.
func (p *Popup) HoverLeave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(&p.showTask)
	p.cancelLocked(&p.hideTask)
	p.hideTask = p.scheduleLocked(p.config.HideDelay, p.dismissLocked)
}

// Dismiss hides the popup now.
func (p *Popup) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(&p.showTask)
	p.cancelLocked(&p.hideTask)
	p.dismissLocked()
}

// Current returns the visible detail.
func (p *Popup) Current() (Detail, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Detail{}, false
	}
	return *p.current, true
}

// Close cancels pending tasks without changing what is shown.
func (p *Popup) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(&p.showTask)
	p.cancelLocked(&p.hideTask)
}

func (p *Popup) showLocked(d Detail) {
	p.current = &d
	p.renderer.Render(d)
	p.logger.WithFields(logrus.Fields{
		"term":    d.Term,
		"anchor":  d.AnchorID,
		"trigger": d.Trigger,
	}).Debug("Showing term detail")
}

func (p *Popup) dismissLocked() {
	if p.current == nil {
		return
	}
	p.current = nil
	p.renderer.Dismiss()
}

// scheduleLocked runs fn after delay unless the returned task is cancelled
// first. Callers cancel the previous task of the same kind before scheduling.
func (p *Popup) scheduleLocked(delay time.Duration, fn func()) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{ctx: ctx, cancel: cancel}

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		// Cancelled while waiting for the lock
		if ctx.Err() != nil {
			return
		}
		fn()
		cancel()
	}()
	return t
}

func (p *Popup) cancelLocked(slot **task) {
	if *slot != nil {
		(*slot).cancel()
		*slot = nil
	}
}
