package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/logging"
	"github.com/uhppoted/uhppoted-app-forms/store"
)

const maxBodySize = 8 * 1024 * 1024

type ensureRequest struct {
	Header store.Header `json:"header"`
}

type rowsRequest struct {
	Header store.Header `json:"header"`
	Rows   []store.Row  `json:"rows"`
}

func (s *Server) handleEnsureTable(w http.ResponseWriter, r *http.Request) {
	var request ensureRequest

	if decode(w, r, &request) {
		writeJSON(w, r, s.tables.EnsureTable(r.Context(), chi.URLParam(r, "name"), request.Header))
	}
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.tables.Exists(r.Context(), chi.URLParam(r, "name")))
}

func (s *Server) handleReplaceRows(w http.ResponseWriter, r *http.Request) {
	var request rowsRequest

	if decode(w, r, &request) {
		writeJSON(w, r, s.tables.ReplaceRows(r.Context(), chi.URLParam(r, "name"), request.Rows))
	}
}

func (s *Server) handleAppendRows(w http.ResponseWriter, r *http.Request) {
	var request rowsRequest

	if decode(w, r, &request) {
		writeJSON(w, r, s.tables.AppendRows(r.Context(), chi.URLParam(r, "name"), request.Header, request.Rows))
	}
}

func (s *Server) handleReadRaw(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.tables.ReadRaw(r.Context(), chi.URLParam(r, "name")))
}

func (s *Server) handleReadAsRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.tables.ReadAsRecords(r.Context(), chi.URLParam(r, "name")))
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.forms.Forms())
}

func (s *Server) handleLoadForm(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.form(w, r); ok {
		writeJSON(w, r, s.forms.Load(r.Context(), id))
	}
}

func (s *Server) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	var request rowsRequest

	if id, ok := s.form(w, r); ok && decode(w, r, &request) {
		writeJSON(w, r, s.forms.Save(r.Context(), id, request.Rows))
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var submission forms.Submission

	if id, ok := s.form(w, r); ok && decode(w, r, &submission) {
		writeJSON(w, r, s.forms.Submit(r.Context(), id, submission))
	}
}

func (s *Server) form(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")

	if _, ok := s.forms.Find(id); !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown form '%s'", id))
		return id, false
	}

	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))

	if err := decoder.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request (%v)", err))
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("json encode", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request failed", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(map[string]string{
		"status":  store.StatusError,
		"message": message,
	})
}
