package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"mealcart/internal/favorites"
	"mealcart/internal/recipes"
	rtypes "mealcart/internal/recipes/types"
	"mealcart/internal/spoonacular"
)

type RandomCommand struct {
	Count int `short:"n" long:"count" description:"Number of recipes" default:"20"`

	globals *GlobalFlags
}

func (c *RandomCommand) Execute(_ []string) error {
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.app.Browser.Random(s.ctx, c.Count)
	if err != nil {
		return fmt.Errorf("%s: %w", recipes.LoadErrorMessage, err)
	}
	return c.globals.emit(list, func(w io.Writer) { printSummaries(w, list) })
}

type SearchCommand struct {
	Limit  int    `short:"n" long:"limit" description:"Maximum results" default:"20"`
	Filter string `long:"filter" description:"Narrow the results locally by title"`

	globals *GlobalFlags
}

func (c *SearchCommand) Execute(args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return spoonacular.ErrEmptyQuery
	}
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.app.Browser.Search(s.ctx, query, c.Limit)
	if err != nil {
		return fmt.Errorf("%s: %w", recipes.SearchErrorMessage, err)
	}
	if c.Filter != "" {
		list = s.app.Browser.Filter(c.Filter)
	}
	return c.globals.emit(list, func(w io.Writer) { printSummaries(w, list) })
}

type ShowCommand struct {
	globals *GlobalFlags
}

type showResult struct {
	Recipe      rtypes.Recipe `json:"recipe"`
	IsFavorite  bool          `json:"isFavorite"`
	Placeholder bool          `json:"placeholder"`
	Error       string        `json:"error,omitempty"`
}

func (c *ShowCommand) Execute(args []string) error {
	id, err := recipeID(args)
	if err != nil {
		return err
	}
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	recipe, msg, placeholder := s.app.Browser.Detail(s.ctx, id)
	res := showResult{
		Recipe:      recipe,
		IsFavorite:  !placeholder && s.app.Favorites.IsFavorite(recipe.ID),
		Placeholder: placeholder,
		Error:       msg,
	}
	return c.globals.emit(res, func(w io.Writer) {
		if msg != "" {
			fmt.Fprintf(w, "%s\n\n", msg)
		}
		printRecipe(w, recipe, res.IsFavorite)
	})
}

type FavoriteCommand struct {
	globals *GlobalFlags
}

func (c *FavoriteCommand) Execute(args []string) error {
	id, err := recipeID(args)
	if err != nil {
		return err
	}
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	recipe, err := s.app.Browser.Fetch(s.ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", recipes.DetailMessage(err), err)
	}
	favorite, err := s.app.Favorites.Toggle(s.ctx, favorites.FromRecipe(*recipe))
	if err != nil {
		return err
	}
	return c.globals.emit(map[string]any{"id": id, "isFavorite": favorite}, func(w io.Writer) {
		if favorite {
			fmt.Fprintf(w, "Added %s to favorites.\n", recipe.Title)
			return
		}
		fmt.Fprintf(w, "Removed %s from favorites.\n", recipe.Title)
	})
}

type FavoritesCommand struct {
	Remove int  `long:"remove" description:"Remove this recipe id from favorites"`
	IDs    bool `long:"ids" description:"Show the browse screen's id list instead"`

	globals *GlobalFlags
}

func (c *FavoritesCommand) Execute(_ []string) error {
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if c.IDs {
		ids := s.app.FavoriteIDs.IDs()
		return c.globals.emit(ids, func(w io.Writer) {
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
		})
	}
	if c.Remove != 0 {
		if err := s.app.Favorites.Remove(s.ctx, c.Remove); err != nil {
			return err
		}
	}
	list := s.app.Favorites.List()
	return c.globals.emit(list, func(w io.Writer) { printFavorites(w, list) })
}

func recipeID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one recipe id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recipe id %q", args[0])
	}
	return id, nil
}
