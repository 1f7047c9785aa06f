// Package grocery manages the shopping list built by hand or from recipe
// ingredients.
package grocery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
)

const Key = "groceryItems"

var (
	ErrEmptyName             = errors.New("item name is empty")
	ErrItemNotFound          = errors.New("grocery item not found")
	ErrNothingToClear        = errors.New("no completed items to clear")
	ErrNoIngredientsSelected = errors.New("no ingredients selected")
	ErrNoIngredients         = errors.New("recipe has no ingredients")
	ErrNotLoaded             = errors.New("grocery list not loaded")
)

type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"createdAt"`
	RecipeID   int       `json:"recipeId,omitempty"`
	RecipeName string    `json:"recipeName,omitempty"`
}

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Manager owns the grocery list. Every mutation computes the next list,
// persists it and swaps it in while holding the lock.
type Manager struct {
	mu     sync.RWMutex
	doc    *cache.Document[[]Item]
	items  []Item
	loaded bool

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

func NewManager(c cache.Cache) *Manager {
	return &Manager{
		doc:   cache.NewDocument[[]Item](c, Key),
		now:   time.Now,
		newID: uuid.NewV7,
	}
}

func (m *Manager) Load(ctx context.Context) error {
	items, _, err := m.doc.Load(ctx)
	if errors.Is(err, cache.ErrCorrupt) {
		slog.ErrorContext(ctx, "grocery list is unreadable, starting empty", "key", Key, "error", err)
		items, err = []Item{}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load grocery list: %w", err)
	}
	if items == nil {
		items = []Item{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	m.loaded = true
	slog.InfoContext(ctx, "loaded grocery list", "count", len(items))
	return nil
}

// AddItem appends a new unchecked item named name.
func (m *Manager) AddItem(ctx context.Context, name string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrEmptyName
	}

	var item Item
	err := m.update(ctx, func(items []Item) ([]Item, error) {
		var err error
		item, err = m.newItem(name)
		if err != nil {
			return nil, err
		}
		return append(items, item), nil
	})
	return item, err
}

// Toggle flips the completed flag of id and returns the updated item.
func (m *Manager) Toggle(ctx context.Context, id string) (Item, error) {
	var item Item
	err := m.update(ctx, func(items []Item) ([]Item, error) {
		i := slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
		if i < 0 {
			return nil, ErrItemNotFound
		}
		items[i].Completed = !items[i].Completed
		item = items[i]
		return items, nil
	})
	return item, err
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.update(ctx, func(items []Item) ([]Item, error) {
		if !lo.ContainsBy(items, func(it Item) bool { return it.ID == id }) {
			return nil, ErrItemNotFound
		}
		return lo.Reject(items, func(it Item, _ int) bool { return it.ID == id }), nil
	})
}

// ClearCompleted removes checked items and reports how many went. With
// nothing checked it returns ErrNothingToClear and writes nothing.
func (m *Manager) ClearCompleted(ctx context.Context) (int, error) {
	var removed int
	err := m.update(ctx, func(items []Item) ([]Item, error) {
		kept, done := lo.FilterReject(items, func(it Item, _ int) bool { return !it.Completed })
		if len(done) == 0 {
			return nil, ErrNothingToClear
		}
		removed = len(done)
		return kept, nil
	})
	return removed, err
}

// AddIngredientsFromRecipe adds the ingredients at the selected indices of
// recipe, tagged with the recipe. Indices out of range are skipped. The list
// is written once.
func (m *Manager) AddIngredientsFromRecipe(ctx context.Context, recipe rtypes.Recipe, selected []int) ([]Item, error) {
	if len(recipe.ExtendedIngredients) == 0 {
		return nil, ErrNoIngredients
	}
	picked := lo.FilterMap(lo.Uniq(selected), func(idx int, _ int) (rtypes.Ingredient, bool) {
		if idx < 0 || idx >= len(recipe.ExtendedIngredients) {
			return rtypes.Ingredient{}, false
		}
		return recipe.ExtendedIngredients[idx], true
	})
	picked = lo.Filter(picked, func(ing rtypes.Ingredient, _ int) bool { return ing.Label() != "" })
	if len(picked) == 0 {
		return nil, ErrNoIngredientsSelected
	}

	var added []Item
	err := m.update(ctx, func(items []Item) ([]Item, error) {
		added = make([]Item, 0, len(picked))
		for _, ing := range picked {
			item, err := m.newItem(ing.Label())
			if err != nil {
				return nil, err
			}
			item.RecipeID = recipe.ID
			item.RecipeName = recipe.Title
			added = append(added, item)
		}
		return append(items, added...), nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "added recipe ingredients to grocery list", "recipe_id", recipe.ID, "count", len(added))
	return added, nil
}

// AllIngredients selects every ingredient of recipe.
func AllIngredients(recipe rtypes.Recipe) []int {
	return lo.Range(len(recipe.ExtendedIngredients))
}

func (m *Manager) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

func (m *Manager) Progress() Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Progress{
		Completed: lo.CountBy(m.items, func(it Item) bool { return it.Completed }),
		Total:     len(m.items),
	}
}

// Names lists item names in order, the text every export target sends.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.items, func(it Item, _ int) string { return it.Name })
}

func (m *Manager) newItem(name string) (Item, error) {
	id, err := m.newID()
	if err != nil {
		return Item{}, fmt.Errorf("failed to generate item id: %w", err)
	}
	return Item{ID: id.String(), Name: name, CreatedAt: m.now().UTC()}, nil
}

// update runs fn on a copy of the list, persists the result and only then
// makes it current. fn errors leave the store untouched.
func (m *Manager) update(ctx context.Context, fn func([]Item) ([]Item, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}

	next, err := fn(slices.Clone(m.items))
	if err != nil {
		return err
	}
	if next == nil {
		next = []Item{}
	}
	if err := m.doc.Save(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save grocery list", "error", err)
		return err
	}
	m.items = next
	return nil
}
