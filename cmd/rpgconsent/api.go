package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/rpgconsent/core/logger"
	"github.com/dmitrymomot/rpgconsent/core/session"
	"github.com/dmitrymomot/rpgconsent/middleware"
)

const maxValueBytes = 16 << 10

// sessionAPI exposes the active session's data bag as JSON.
type sessionAPI struct {
	mgr *session.Manager
	log *slog.Logger
}

type sessionResponse struct {
	session.Info
	Locale string `json:"locale,omitempty"`
}

type valueRequest struct {
	Value any `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a sessionAPI) routes(r chi.Router) {
	r.Get("/", a.get)
	r.Put("/{key}", a.put)
	r.Delete("/{key}", a.delete)
}

func (a sessionAPI) get(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		a.fail(w, r, session.ErrNoActiveSession)
		return
	}

	resp := sessionResponse{Info: s.Info()}
	if tag, ok := middleware.GetLocale(r.Context()); ok {
		resp.Locale = tag.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a sessionAPI) put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	// Identity changes only through login and logout.
	if key == session.UserIDKey {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "user_id is read-only"})
		return
	}

	var req valueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValueBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if err := a.mgr.Storage().Set(r.Context(), key, req.Value); err != nil {
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": req.Value})
}

func (a sessionAPI) delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == session.UserIDKey {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "user_id is read-only"})
		return
	}

	if err := a.mgr.Storage().Delete(r.Context(), key); err != nil {
		a.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a sessionAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrKeyNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		a.log.ErrorContext(r.Context(), "session api request failed",
			logger.Component("api"),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
