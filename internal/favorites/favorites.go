// Package favorites keeps the user's favorited recipes in memory and mirrors
// every change to the store.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
)

const (
	// Key holds full favorite summaries for the detail flow.
	Key = "favorites"
	// IDsKey holds bare recipe ids for the browse flow.
	IDsKey = "favoriteRecipes"
)

var (
	ErrMissingID = errors.New("recipe has no id")
	ErrNotLoaded = errors.New("favorites not loaded")
)

// Recipe is what we remember about a favorited recipe.
type Recipe struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Image          string  `json:"image,omitempty"`
	ReadyInMinutes int     `json:"readyInMinutes,omitempty"`
	HealthScore    float64 `json:"healthScore,omitempty"`
}

func FromRecipe(r rtypes.Recipe) Recipe {
	return Recipe{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		HealthScore:    r.HealthScore,
	}
}

// Manager owns the favorites list. Mutations hold the lock across the store
// write so the persisted list always matches memory once they return.
type Manager struct {
	mu     sync.RWMutex
	doc    *cache.Document[[]Recipe]
	list   []Recipe
	loaded bool
}

func NewManager(c cache.Cache, key string) *Manager {
	if key == "" {
		key = Key
	}
	return &Manager{doc: cache.NewDocument[[]Recipe](c, key)}
}

// Load reads the persisted list. A missing key is an empty list.
func (m *Manager) Load(ctx context.Context) error {
	list, _, err := m.doc.Load(ctx)
	if errors.Is(err, cache.ErrCorrupt) {
		slog.ErrorContext(ctx, "favorites are unreadable, starting empty", "key", m.doc.Key(), "error", err)
		list, err = []Recipe{}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	// drop duplicates a corrupted or hand edited store might hold
	list = lo.UniqBy(list, func(r Recipe) int { return r.ID })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = list
	m.loaded = true
	slog.InfoContext(ctx, "loaded favorites", "key", m.doc.Key(), "count", len(list))
	return nil
}

// Add appends recipe unless it is already a favorite. Adding an existing id
// succeeds without writing.
func (m *Manager) Add(ctx context.Context, recipe Recipe) error {
	if recipe.ID == 0 {
		slog.ErrorContext(ctx, "cannot add favorite without an id", "title", recipe.Title)
		return ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	if m.contains(recipe.ID) {
		return nil
	}
	next := append(slices.Clone(m.list), recipe)
	return m.commit(ctx, next)
}

// Remove drops id from the list. Removing an id that is not a favorite still
// rewrites the list.
func (m *Manager) Remove(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	next := lo.Reject(m.list, func(r Recipe, _ int) bool { return r.ID == id })
	return m.commit(ctx, next)
}

// Toggle adds recipe when absent and removes it otherwise. It reports whether
// the recipe is a favorite afterwards.
func (m *Manager) Toggle(ctx context.Context, recipe Recipe) (bool, error) {
	if recipe.ID == 0 {
		slog.ErrorContext(ctx, "cannot toggle favorite without an id", "title", recipe.Title)
		return false, ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return false, ErrNotLoaded
	}
	if m.contains(recipe.ID) {
		next := lo.Reject(m.list, func(r Recipe, _ int) bool { return r.ID == recipe.ID })
		return false, m.commit(ctx, next)
	}
	if err := m.commit(ctx, append(slices.Clone(m.list), recipe)); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) IsFavorite(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contains(id)
}

// List returns a copy in insertion order.
func (m *Manager) List() []Recipe {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.list)
}

func (m *Manager) IDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.list, func(r Recipe, _ int) int { return r.ID })
}

func (m *Manager) contains(id int) bool {
	return lo.ContainsBy(m.list, func(r Recipe) bool { return r.ID == id })
}

// commit persists next and only then makes it current. Caller holds mu.
func (m *Manager) commit(ctx context.Context, next []Recipe) error {
	if next == nil {
		next = []Recipe{}
	}
	if err := m.doc.Save(ctx, next); err != nil {
		slog.ErrorContext(ctx, "failed to save favorites", "key", m.doc.Key(), "error", err)
		return err
	}
	m.list = next
	return nil
}
