package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/engine"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/session"
)

type SessionResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type HoverRequest struct {
	HighlightID int    `json:"highlightId"`
	State       string `json:"state"`
}

type MutationRequest struct {
	Selector string `json:"selector"`
}

type MutationResponse struct {
	Removed int `json:"removed"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.Engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req engine.OpenRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.Engine.OpenSession(r.Context(), req)
	if errors.Is(err, engine.ErrNoDocument) {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		jsonResponse(w, http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}

	info := sess.Info()
	jsonResponse(w, http.StatusCreated, SessionResponse{ID: info.ID, Title: info.Title, URL: info.URL})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.Engine.Sessions())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.CloseSession(chi.URLParam(r, "id")); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := sess.Render(&buf); err != nil {
		errorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleMessage is the command channel. Command failures are reported in
// the body with a 200, like any other response.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req session.Request
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.Engine.Dispatch(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var cmd session.KeyCommand
	if !decode(w, r, &cmd) {
		return
	}

	resp, handled := sess.HandleKey(r.Context(), cmd)
	if !handled {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req HoverRequest
	if !decode(w, r, &req) {
		return
	}

	switch req.State {
	case "enter":
		if err := sess.HoverEnter(req.HighlightID); err != nil {
			jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
	case "leave":
		sess.HoverLeave()
	default:
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "state must be enter or leave"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, sess.Status())
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	detail, visible := sess.Detail()
	if !visible {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	jsonResponse(w, http.StatusOK, detail)
}

func (s *Server) handleDismissDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.DismissDetail()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req MutationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Selector == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "selector is required"})
		return
	}

	removed, err := sess.RemoveMatching(req.Selector)
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, MutationResponse{Removed: removed})
}
