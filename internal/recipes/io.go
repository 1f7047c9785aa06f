package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
)

const recipeCachePrefix = "recipe/"

// recipeio keeps fetched recipe details so repeat views skip the API quota.
type recipeio struct {
	Cache cache.Cache
}

func IO(c cache.Cache) *recipeio {
	return &recipeio{c}
}

func recipeKey(id int) string {
	return recipeCachePrefix + strconv.Itoa(id)
}

func (rio recipeio) SingleFromCache(ctx context.Context, id int) (*rtypes.Recipe, error) {
	r, err := rio.Cache.Get(ctx, recipeKey(id))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close cached recipe", "id", id, "error", err)
		}
	}()

	var recipe rtypes.Recipe
	if err := json.NewDecoder(r).Decode(&recipe); err != nil {
		return nil, fmt.Errorf("failed to decode cached recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// SaveRecipe stores recipe once. A recipe that is already cached is left
// alone.
func (rio recipeio) SaveRecipe(ctx context.Context, recipe *rtypes.Recipe) error {
	b, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe %d: %w", recipe.ID, err)
	}
	err = rio.Cache.Put(ctx, recipeKey(recipe.ID), string(b), cache.IfNoneMatch())
	if errors.Is(err, cache.ErrAlreadyExists) {
		return nil
	}
	return err
}
