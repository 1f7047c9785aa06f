package favorites

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samber/lo"

	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/respond"
)

// LoadFailedMessage is shown when favorite details cannot be fetched.
const LoadFailedMessage = "Failed to load recipes. Please check your internet connection or API key."

type bulkFetcher interface {
	Bulk(ctx context.Context, ids []int) ([]rtypes.Recipe, error)
}

type server struct {
	favorites *Manager
	ids       *IDList
	recipes   bulkFetcher
}

func NewHandler(favorites *Manager, ids *IDList, recipes bulkFetcher) *server {
	return &server{favorites: favorites, ids: ids, recipes: recipes}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /favorites", s.handleList)
	mux.HandleFunc("DELETE /favorites/{id}", s.handleRemove)
	mux.HandleFunc("GET /favorites/ids", s.handleListIDs)
	mux.HandleFunc("POST /favorites/ids/{id}", s.handleToggleID)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, s.favorites.List())
}

func (s *server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}
	if err := s.favorites.Remove(ctx, id); err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, s.favorites.List())
}

type idsResponse struct {
	IDs     []int            `json:"ids"`
	Recipes []rtypes.Summary `json:"recipes"`
	Error   string           `json:"error,omitempty"`
}

func (s *server) handleListIDs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := idsResponse{IDs: s.ids.IDs(), Recipes: []rtypes.Summary{}}
	if len(resp.IDs) == 0 {
		respond.OK(w, resp)
		return
	}

	recipes, err := s.recipes.Bulk(ctx, resp.IDs)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch favorite recipes", "count", len(resp.IDs), "error", err)
		resp.Error = LoadFailedMessage
		respond.JSON(w, http.StatusBadGateway, resp)
		return
	}
	resp.Recipes = lo.Map(recipes, func(r rtypes.Recipe, _ int) rtypes.Summary { return r.AsSummary() })
	respond.OK(w, resp)
}

func (s *server) handleToggleID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid recipe id")
		return
	}
	favorite, err := s.ids.Toggle(ctx, id)
	if err != nil {
		WriteError(ctx, w, err)
		return
	}
	respond.OK(w, map[string]any{"id": id, "favorite": favorite})
}

// WriteError maps favorites errors to HTTP statuses.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingID):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotLoaded):
		respond.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.ErrorContext(ctx, "favorites request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "unable to save favorites")
	}
}
