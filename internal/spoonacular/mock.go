package spoonacular

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"mealcart/internal/config"
	rtypes "mealcart/internal/recipes/types"
)

// Source is what the rest of the app needs from a recipe provider.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]rtypes.Summary, error)
	Random(ctx context.Context, count int) ([]rtypes.Summary, error)
	Details(ctx context.Context, id int) (*rtypes.Recipe, error)
	Bulk(ctx context.Context, ids []int) ([]rtypes.Recipe, error)
}

var _ Source = (*Client)(nil)
var _ Source = mock{}

func New(cfg *config.Config) (Source, error) {
	if cfg.Mocks.Enable {
		return mock{}, nil
	}
	return NewClient(cfg.Spoonacular)
}

type mock struct{}

var fakes = []rtypes.Recipe{
	{
		ID:             716429,
		Title:          "Pasta with Garlic, Scallions, Cauliflower & Breadcrumbs",
		Image:          "https://img.spoonacular.com/recipes/716429-556x370.jpg",
		ReadyInMinutes: 45,
		Servings:       2,
		HealthScore:    19,
		Summary:        "A <b>hearty</b> weeknight pasta.",
		ExtendedIngredients: []rtypes.Ingredient{
			{ID: 1001, Name: "butter", Original: "1 tbsp butter", Amount: 1, Unit: "tbsp"},
			{ID: 10011135, Name: "cauliflower florets", Original: "about 2 cups frozen cauliflower florets", Amount: 2, Unit: "cups"},
			{ID: 1102047, Name: "salt and pepper", Amount: 2, Unit: "servings"},
		},
		AnalyzedInstructions: []rtypes.Instruction{{Steps: []rtypes.Step{
			{Number: 1, Step: "Boil the pasta."},
			{Number: 2, Step: "Toss with the roasted cauliflower."},
		}}},
	},
	{
		ID:             715538,
		Title:          "Bruschetta Style Pork & Pasta",
		ReadyInMinutes: 35,
		Servings:       5,
		HealthScore:    30,
		ExtendedIngredients: []rtypes.Ingredient{
			{ID: 10219, Name: "pork chops", Original: "4 boneless pork chops", Amount: 4},
			{ID: 11529, Name: "tomatoes", Original: "2 tomatoes, diced", Amount: 2},
		},
	},
	{
		ID:             782601,
		Title:          "Red Kidney Bean Jambalaya",
		Image:          "https://img.spoonacular.com/recipes/782601-556x370.jpg",
		ReadyInMinutes: 45,
		Servings:       6,
		HealthScore:    96,
		ExtendedIngredients: []rtypes.Ingredient{
			{ID: 16033, Name: "kidney beans", Original: "1 can red kidney beans", Amount: 1, Unit: "can"},
		},
	},
}

func (m mock) Search(_ context.Context, query string, limit int) ([]rtypes.Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	hits := rtypes.Filter(summaries(fakes), query)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m mock) Random(_ context.Context, count int) ([]rtypes.Summary, error) {
	out := summaries(fakes)
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (m mock) Details(_ context.Context, id int) (*rtypes.Recipe, error) {
	r, ok := lo.Find(fakes, func(r rtypes.Recipe) bool { return r.ID == id })
	if !ok {
		return nil, &StatusError{Operation: "details", StatusCode: 404, Body: fmt.Sprintf("no recipe %d", id)}
	}
	return &r, nil
}

func (m mock) Bulk(_ context.Context, ids []int) ([]rtypes.Recipe, error) {
	return lo.Filter(fakes, func(r rtypes.Recipe, _ int) bool { return lo.Contains(ids, r.ID) }), nil
}
