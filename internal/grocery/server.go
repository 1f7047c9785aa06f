package grocery

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mealcart/internal/export"
	"mealcart/internal/respond"
)

type exporter interface {
	Export(ctx context.Context, req export.Request, names []string) (export.Result, error)
}

type server struct {
	list     *Manager
	exporter exporter
}

func NewHandler(list *Manager, exporter exporter) *server {
	return &server{list: list, exporter: exporter}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /grocery", s.handleList)
	mux.HandleFunc("POST /grocery", s.handleAdd)
	mux.HandleFunc("POST /grocery/{id}/toggle", s.handleToggle)
	mux.HandleFunc("DELETE /grocery/{id}", s.handleDelete)
	mux.HandleFunc("POST /grocery/clear-completed", s.handleClearCompleted)
	mux.HandleFunc("GET /grocery/export", s.handleTargets)
	mux.HandleFunc("POST /grocery/export", s.handleExport)
}

type listResponse struct {
	Items    []Item   `json:"items"`
	Progress Progress `json:"progress"`
	Message  string   `json:"message,omitempty"`
}

func (s *server) current(msg string) listResponse {
	return listResponse{Items: s.list.Items(), Progress: s.list.Progress(), Message: msg}
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, s.current(""))
}

func (s *server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body struct {
		Name string `json:"name"`
	}
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := s.list.AddItem(ctx, body.Name); err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, s.current(""))
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.list.Toggle(ctx, r.PathValue("id")); err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, s.current(""))
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.list.Delete(ctx, r.PathValue("id")); err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, s.current(""))
}

func (s *server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, err := s.list.ClearCompleted(ctx)
	if errors.Is(err, ErrNothingToClear) {
		respond.OK(w, s.current("There are no completed items to clear."))
		return
	}
	if err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, s.current(""))
}

func (s *server) handleTargets(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, export.Targets)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req export.Request
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.exporter.Export(ctx, req, s.list.Names())
	if err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, res)
}

// WriteError maps grocery and export errors onto HTTP responses.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyName),
		errors.Is(err, ErrNoIngredients),
		errors.Is(err, ErrNoIngredientsSelected),
		errors.Is(err, export.ErrUnknownTarget),
		errors.Is(err, export.ErrEmailRequired),
		errors.Is(err, export.ErrPhoneRequired),
		errors.Is(err, export.ErrInvalidEmail),
		errors.Is(err, export.ErrInvalidPhone),
		errors.Is(err, export.ErrEmptyList):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrItemNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotLoaded):
		respond.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.ErrorContext(ctx, "grocery request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "unable to save grocery list")
	}
}
