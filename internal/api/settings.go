package api

import (
	"net/http"
)

type SettingsResponse struct {
	AutoScan bool `json:"autoScan"`
}

type VocabularyResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, SettingsResponse{AutoScan: s.Engine.AutoScanEnabled()})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsResponse
	if !decode(w, r, &req) {
		return
	}
	if err := s.Engine.SetAutoScan(req.AutoScan); err != nil {
		s.Logger.WithError(err).Error("Failed to update settings")
		errorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, SettingsResponse{AutoScan: s.Engine.AutoScanEnabled()})
}

func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Engine.Vocabulary(r.Context())
	if err != nil {
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, VocabularyResponse{Count: len(entries)})
}

func (s *Server) handleReloadVocabulary(w http.ResponseWriter, r *http.Request) {
	count, err := s.Engine.ReloadVocabulary(r.Context())
	if err != nil {
		jsonResponse(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, VocabularyResponse{Count: count})
}
