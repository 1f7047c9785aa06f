// Package app assembles the store, the recipe source and the managers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"mealcart/internal/cache"
	"mealcart/internal/config"
	"mealcart/internal/export"
	"mealcart/internal/favorites"
	"mealcart/internal/grocery"
	"mealcart/internal/recipes"
	"mealcart/internal/spoonacular"
)

type App struct {
	Config      *config.Config
	Cache       cache.ListCache
	Source      spoonacular.Source
	Browser     *recipes.Browser
	Favorites   *favorites.Manager
	FavoriteIDs *favorites.IDList
	Grocery     *grocery.Manager
	Exporter    *export.Exporter
}

// New builds every component and loads the persisted lists. It returns only
// once all of them are loaded.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	c, err := cache.MakeCache(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return NewWithCache(ctx, cfg, c)
}

// NewWithCache is New over an existing store.
func NewWithCache(ctx context.Context, cfg *config.Config, c cache.ListCache) (*App, error) {
	source, err := spoonacular.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe client: %w", err)
	}

	a := &App{
		Config:      cfg,
		Cache:       c,
		Source:      source,
		Browser:     recipes.NewBrowser(source, c),
		Favorites:   favorites.NewManager(c, favorites.Key),
		FavoriteIDs: favorites.NewIDList(c),
		Grocery:     grocery.NewManager(c),
		Exporter:    export.NewExporter(cfg.Mail),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Favorites.Load(gctx) })
	g.Go(func() error { return a.FavoriteIDs.Load(gctx) })
	g.Go(func() error { return a.Grocery.Load(gctx) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	favorites.CheckDivergence(ctx, a.Favorites, a.FavoriteIDs)
	slog.InfoContext(ctx, "mealcart ready", "store", cfg.Store.Backend, "mocks", cfg.Mocks.Enable)
	return a, nil
}

func (a *App) Register(mux *http.ServeMux) {
	recipes.NewHandler(a.Browser, a.Favorites, a.Grocery).Register(mux)
	favorites.NewHandler(a.Favorites, a.FavoriteIDs, a.Source).Register(mux)
	grocery.NewHandler(a.Grocery, a.Exporter).Register(mux)
}

// Ready checks that the store still answers.
func (a *App) Ready(ctx context.Context) error {
	if _, err := a.Cache.Exists(ctx, grocery.Key); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	return nil
}

// Close waits for background cache writes and releases the store.
func (a *App) Close() error {
	a.Browser.Wait()
	if c, ok := a.Cache.(cache.Closer); ok {
		return c.Close()
	}
	return nil
}
