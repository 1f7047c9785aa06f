package recipes

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/spoonacular"
)

func TestBrowserSearchEmptyKeepsPage(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	b := NewBrowser(src, cache.NewInMemoryCache())

	_, err := b.Random(ctx, 3)
	require.NoError(t, err)
	calls := src.Calls()

	_, err = b.Search(ctx, "   ", 10)
	assert.ErrorIs(t, err, spoonacular.ErrEmptyQuery)
	assert.Equal(t, calls, src.Calls(), "empty query must not reach the source")
	assert.Len(t, b.Page(), 3)
}

func TestBrowserSearchReplacesPage(t *testing.T) {
	ctx := context.Background()
	b := NewBrowser(newFake(), cache.NewInMemoryCache())

	list, err := b.Search(ctx, "soup", 10)
	require.NoError(t, err)
	assert.Equal(t, list, b.Page())
}

func TestBrowserFailureKeepsPage(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	b := NewBrowser(src, cache.NewInMemoryCache())
	_, err := b.Random(ctx, 3)
	require.NoError(t, err)

	src.err = errors.New("offline")
	_, err = b.Random(ctx, 3)
	require.Error(t, err)
	_, err = b.Search(ctx, "soup", 3)
	require.Error(t, err)
	assert.Len(t, b.Page(), 3)
}

func TestBrowserFilter(t *testing.T) {
	b := NewBrowser(newFake(), cache.NewInMemoryCache())
	assert.Empty(t, b.Filter("soup"))

	_, err := b.Random(context.Background(), 3)
	require.NoError(t, err)
	got := b.Filter("tomato")
	require.Len(t, got, 2)
	assert.Equal(t, "Tomato Soup", got[0].Title)
}

func TestBrowserFetchCaches(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	c := cache.NewInMemoryCache()
	b := NewBrowser(src, c)

	first, err := b.Fetch(ctx, 42)
	require.NoError(t, err)
	b.Wait()
	second, err := b.Fetch(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls())
	assert.Contains(t, c.Snapshot(), "recipe/42")
}

func TestBrowserDetailPlaceholder(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	b := NewBrowser(src, cache.NewInMemoryCache())

	src.err = &spoonacular.StatusError{Operation: "details", StatusCode: http.StatusUnauthorized}
	recipe, msg, placeholder := b.Detail(ctx, 42)
	assert.True(t, placeholder)
	assert.Equal(t, AuthErrorMessage, msg)
	assert.Equal(t, rtypes.PlaceholderID, recipe.ID)
	assert.Equal(t, "Mock Recipe", recipe.Title)

	src.err = errors.New("timeout")
	_, msg, placeholder = b.Detail(ctx, 42)
	assert.True(t, placeholder)
	assert.Equal(t, DetailErrorMessage, msg)

	src.err = nil
	recipe, msg, placeholder = b.Detail(ctx, 42)
	assert.False(t, placeholder)
	assert.Empty(t, msg)
	assert.Equal(t, "Stew", recipe.Title)
}
