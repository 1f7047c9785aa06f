package recipes

import (
	"context"
	"strings"
	"sync"

	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/spoonacular"
)

type fakeSource struct {
	mu        sync.Mutex
	random    []rtypes.Summary
	search    []rtypes.Summary
	recipes   map[int]rtypes.Recipe
	err       error
	calls     int
	lastQuery string
}

func (f *fakeSource) record() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Search(_ context.Context, query string, _ int) ([]rtypes.Summary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, spoonacular.ErrEmptyQuery
	}
	if err := f.record(); err != nil {
		return nil, err
	}
	f.lastQuery = query
	return f.search, nil
}

func (f *fakeSource) Random(context.Context, int) ([]rtypes.Summary, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.random, nil
}

func (f *fakeSource) Details(_ context.Context, id int) (*rtypes.Recipe, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	r, ok := f.recipes[id]
	if !ok {
		return nil, &spoonacular.StatusError{Operation: "details", StatusCode: 404}
	}
	return &r, nil
}

func (f *fakeSource) Bulk(context.Context, []int) ([]rtypes.Recipe, error) {
	return nil, f.record()
}

func newFake() *fakeSource {
	return &fakeSource{
		random: []rtypes.Summary{
			{ID: 1, Title: "Tomato Soup"},
			{ID: 2, Title: "Spicy Tomato Pasta"},
			{ID: 3, Title: "Chicken Curry"},
		},
		search: []rtypes.Summary{{ID: 9, Title: "Lentil Soup"}},
		recipes: map[int]rtypes.Recipe{
			42: {
				ID:          42,
				Title:       "Stew",
				Summary:     "A <b>warm</b> stew.",
				HealthScore: 12,
				ExtendedIngredients: []rtypes.Ingredient{
					{Name: "beef", Original: "1 lb beef"},
					{Name: "carrots", Amount: 2},
				},
			},
		},
	}
}
