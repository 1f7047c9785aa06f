package recipes

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/spoonacular"
)

const (
	AuthErrorMessage   = "API Key Error. Check your Spoonacular API key."
	DetailErrorMessage = "Failed to load recipe details. Please try again later."
	LoadErrorMessage   = "Failed to load recipes. Please check your internet connection or API key."
	SearchErrorMessage = "Failed to search recipes. Please check your internet connection or API key."
)

// Browser fronts the recipe source for both the HTTP handlers and the CLI.
// It remembers the last page it served so Filter can narrow it locally.
type Browser struct {
	source spoonacular.Source
	rio    *recipeio

	mu   sync.RWMutex
	page []rtypes.Summary
	wg   sync.WaitGroup
}

func NewBrowser(source spoonacular.Source, c cache.Cache) *Browser {
	return &Browser{source: source, rio: IO(c), page: []rtypes.Summary{}}
}

// Random loads a fresh page of random recipes. On failure the previous page
// is kept.
func (b *Browser) Random(ctx context.Context, count int) ([]rtypes.Summary, error) {
	list, err := b.source.Random(ctx, count)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load random recipes", "error", err)
		return nil, err
	}
	b.setPage(list)
	return list, nil
}

// Search replaces the page with query results. A blank query is rejected and
// leaves the page as it was.
func (b *Browser) Search(ctx context.Context, query string, limit int) ([]rtypes.Summary, error) {
	list, err := b.source.Search(ctx, query, limit)
	if err != nil {
		if !errors.Is(err, spoonacular.ErrEmptyQuery) {
			slog.ErrorContext(ctx, "failed to search recipes", "query", query, "error", err)
		}
		return nil, err
	}
	b.setPage(list)
	return list, nil
}

// Filter narrows the last page by title without calling the API.
func (b *Browser) Filter(query string) []rtypes.Summary {
	return rtypes.Filter(b.Page(), query)
}

func (b *Browser) Page() []rtypes.Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.page)
}

func (b *Browser) setPage(list []rtypes.Summary) {
	if list == nil {
		list = []rtypes.Summary{}
	}
	b.mu.Lock()
	b.page = list
	b.mu.Unlock()
}

// Fetch returns recipe details, from the local cache when we have seen the
// recipe before.
func (b *Browser) Fetch(ctx context.Context, id int) (*rtypes.Recipe, error) {
	cached, err := b.rio.SingleFromCache(ctx, id)
	if err == nil {
		slog.DebugContext(ctx, "serving cached recipe", "id", id)
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		slog.WarnContext(ctx, "failed to read cached recipe", "id", id, "error", err)
	}

	recipe, err := b.source.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.rio.SaveRecipe(context.WithoutCancel(ctx), recipe); err != nil {
			slog.ErrorContext(ctx, "failed to cache recipe", "id", id, "error", err)
		}
	}()
	return recipe, nil
}

// Detail fetches a recipe for display. When the fetch fails the placeholder
// recipe comes back together with a message for the user.
func (b *Browser) Detail(ctx context.Context, id int) (recipe rtypes.Recipe, message string, placeholder bool) {
	r, err := b.Fetch(ctx, id)
	if err == nil {
		return *r, "", false
	}
	slog.ErrorContext(ctx, "failed to load recipe details", "id", id, "error", err)
	return rtypes.Placeholder(), DetailMessage(err), true
}

// Wait blocks until background cache writes finish.
func (b *Browser) Wait() {
	b.wg.Wait()
}

func DetailMessage(err error) string {
	if spoonacular.IsAuthError(err) {
		return AuthErrorMessage
	}
	return DetailErrorMessage
}
