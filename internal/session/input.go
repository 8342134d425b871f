package session

import (
	"context"
	"errors"
	"strings"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/presenter"
)

// ErrUnknownHighlight is returned for a highlight id that is not tracked
var ErrUnknownHighlight = errors.New("unknown highlight")

// KeyCommand is a key press delivered to the page
type KeyCommand struct {
	Key    string `json:"key"`
	Ctrl   bool   `json:"ctrl"`
	Meta   bool   `json:"meta"`
	Target string `json:"target"` // tag name of the focused element
}

var editableTargets = map[string]bool{
	"INPUT":    true,
	"TEXTAREA": true,
	"SELECT":   true,
}

// HandleKey maps navigation shortcuts onto commands. It reports false when
// the key is not a shortcut or shortcuts do not apply.
func (s *Session) HandleKey(ctx context.Context, cmd KeyCommand) (any, bool) {
	if !cmd.Ctrl && !cmd.Meta {
		return nil, false
	}
	if editableTargets[strings.ToUpper(cmd.Target)] {
		return nil, false
	}

	var action string
	switch cmd.Key {
	case "ArrowDown", "n":
		action = ActionNext
	case "ArrowUp", "p":
		action = ActionPrevious
	default:
		return nil, false
	}

	if s.HighlightCount() == 0 {
		return nil, false
	}
	return s.Handle(ctx, Request{Action: action}), true
}

// HoverEnter schedules the detail for highlight id
func (s *Session) HoverEnter(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.nav.MarkerByID(id)
	if !ok {
		return ErrUnknownHighlight
	}
	s.popup.HoverEnter(s.detailFor(m, presenter.TriggerHover))
	return nil
}

// HoverLeave schedules the detail to hide
func (s *Session) HoverLeave() {
	s.popup.HoverLeave()
}
