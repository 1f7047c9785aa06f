package recipes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"mealcart/internal/favorites"
	"mealcart/internal/grocery"
	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/respond"
	"mealcart/internal/spoonacular"
)

type server struct {
	browser   *Browser
	favorites *favorites.Manager
	grocery   *grocery.Manager
}

// NewHandler returns the handler serving the recipe endpoints under /recipes.
func NewHandler(browser *Browser, favs *favorites.Manager, list *grocery.Manager) *server {
	return &server{browser: browser, favorites: favs, grocery: list}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /recipes", s.handleRandom)
	mux.HandleFunc("GET /recipes/search", s.handleSearch)
	mux.HandleFunc("GET /recipes/filter", s.handleFilter)
	mux.HandleFunc("GET /recipes/{id}", s.handleDetail)
	mux.HandleFunc("POST /recipes/{id}/favorite", s.handleFavorite)
	mux.HandleFunc("POST /recipes/{id}/grocery", s.handleAddToGrocery)
}

type listResponse struct {
	Recipes []rtypes.Summary `json:"recipes"`
	Error   string           `json:"error,omitempty"`
}

func (s *server) handleRandom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, ok := intParam(w, r, "count")
	if !ok {
		return
	}
	list, err := s.browser.Random(ctx, count)
	if err != nil {
		respond.JSON(w, http.StatusBadGateway, listResponse{Recipes: s.browser.Page(), Error: LoadErrorMessage})
		return
	}
	respond.OK(w, listResponse{Recipes: list})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	list, err := s.browser.Search(ctx, r.URL.Query().Get("q"), limit)
	switch {
	case errors.Is(err, spoonacular.ErrEmptyQuery):
		// nothing to search for, keep showing what we have
		respond.OK(w, listResponse{Recipes: s.browser.Page()})
	case err != nil:
		respond.JSON(w, http.StatusBadGateway, listResponse{Recipes: s.browser.Page(), Error: SearchErrorMessage})
	default:
		respond.OK(w, listResponse{Recipes: list})
	}
}

func (s *server) handleFilter(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, listResponse{Recipes: s.browser.Filter(r.URL.Query().Get("q"))})
}

type detailResponse struct {
	Recipe      rtypes.Recipe `json:"recipe"`
	SummaryText string        `json:"summaryText,omitempty"`
	IsFavorite  bool          `json:"isFavorite"`
	Placeholder bool          `json:"placeholder"`
	Error       string        `json:"error,omitempty"`
}

func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	recipe, msg, placeholder := s.browser.Detail(ctx, id)
	respond.OK(w, detailResponse{
		Recipe:      recipe,
		SummaryText: rtypes.PlainSummary(recipe.Summary),
		// the stand-in shares its id with whatever real recipe has it
		IsFavorite:  !placeholder && s.favorites.IsFavorite(recipe.ID),
		Placeholder: placeholder,
		Error:       msg,
	})
}

func (s *server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipe, ok := s.fetch(ctx, w, r)
	if !ok {
		return
	}
	favorite, err := s.favorites.Toggle(ctx, favorites.FromRecipe(*recipe))
	if err != nil {
		favorites.WriteError(ctx, w, err)
		return
	}
	respond.OK(w, map[string]any{"id": recipe.ID, "isFavorite": favorite})
}

func (s *server) handleAddToGrocery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body struct {
		Selected *[]int `json:"selected"`
	}
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recipe, ok := s.fetch(ctx, w, r)
	if !ok {
		return
	}

	selected := grocery.AllIngredients(*recipe)
	if body.Selected != nil {
		selected = *body.Selected
	}
	added, err := s.grocery.AddIngredientsFromRecipe(ctx, *recipe, selected)
	if err != nil {
		grocery.WriteError(ctx, w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"added": added, "progress": s.grocery.Progress()})
}

// fetch loads the recipe named in the path. Unlike the detail view it never
// substitutes the placeholder, so nothing is saved against a stand-in.
func (s *server) fetch(ctx context.Context, w http.ResponseWriter, r *http.Request) (*rtypes.Recipe, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	recipe, err := s.browser.Fetch(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load recipe", "id", id, "error", err)
		respond.Error(w, http.StatusBadGateway, DetailMessage(err))
		return nil, false
	}
	return recipe, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid recipe id")
		return 0, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return spoonacular.DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
