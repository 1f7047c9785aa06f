package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"mealcart/internal/export"
	"mealcart/internal/grocery"
	"mealcart/internal/recipes"
)

// GroceryCommand prints the list when no subcommand is given.
type GroceryCommand struct {
	globals *GlobalFlags
}

type groceryView struct {
	Items    []grocery.Item   `json:"items"`
	Progress grocery.Progress `json:"progress"`
}

func showList(g *GlobalFlags, s *session) error {
	view := groceryView{Items: s.app.Grocery.Items(), Progress: s.app.Grocery.Progress()}
	return g.emit(view, func(w io.Writer) { printGrocery(w, view.Items, view.Progress) })
}

func (c *GroceryCommand) Execute(_ []string) error {
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()
	return showList(c.globals, s)
}

type GroceryAddCommand struct {
	globals *GlobalFlags
}

func (c *GroceryAddCommand) Execute(args []string) error {
	name := strings.Join(args, " ")
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.app.Grocery.AddItem(s.ctx, name); err != nil {
		return err
	}
	return showList(c.globals, s)
}

type GroceryToggleCommand struct {
	globals *GlobalFlags
}

func (c *GroceryToggleCommand) Execute(args []string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one item id")
	}
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.app.Grocery.Toggle(s.ctx, args[0]); err != nil {
		return err
	}
	return showList(c.globals, s)
}

type GroceryDeleteCommand struct {
	globals *GlobalFlags
}

func (c *GroceryDeleteCommand) Execute(args []string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one item id")
	}
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.app.Grocery.Delete(s.ctx, args[0]); err != nil {
		return err
	}
	return showList(c.globals, s)
}

type GroceryClearCommand struct {
	globals *GlobalFlags
}

func (c *GroceryClearCommand) Execute(_ []string) error {
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	removed, err := s.app.Grocery.ClearCompleted(s.ctx)
	if errors.Is(err, grocery.ErrNothingToClear) {
		if !c.globals.JSON {
			fmt.Fprintln(c.globals.out, "There are no completed items to clear.")
		}
		return showList(c.globals, s)
	}
	if err != nil {
		return err
	}
	if !c.globals.JSON {
		fmt.Fprintf(c.globals.out, "Cleared %d completed items.\n", removed)
	}
	return showList(c.globals, s)
}

type GroceryRecipeCommand struct {
	Select []int `short:"s" long:"select" description:"Ingredient index to add (repeatable); all when omitted"`

	globals *GlobalFlags
}

func (c *GroceryRecipeCommand) Execute(args []string) error {
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
	selected := c.Select
	if len(selected) == 0 {
		selected = grocery.AllIngredients(*recipe)
	}
	added, err := s.app.Grocery.AddIngredientsFromRecipe(s.ctx, *recipe, selected)
	if err != nil {
		return err
	}
	if !c.globals.JSON {
		fmt.Fprintf(c.globals.out, "Added %d ingredients from %s.\n", len(added), recipe.Title)
	}
	return showList(c.globals, s)
}

type ExportCommand struct {
	Email string `long:"email" description:"Address for the email target"`
	Phone string `long:"phone" description:"Number for the text target"`
	List  bool   `long:"list" description:"List export targets"`

	globals *GlobalFlags
}

func (c *ExportCommand) Execute(args []string) error {
	if c.List {
		return c.globals.emit(export.Targets, func(w io.Writer) {
			for _, t := range export.Targets {
				status := "available"
				if !t.Available {
					status = "coming soon"
				}
				fmt.Fprintf(w, "%-10s %-18s %s\n", t.ID, t.Name, status)
			}
		})
	}
	if len(args) != 1 {
		return errors.New("expected exactly one export target, see --list")
	}

	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.app.Exporter.Export(s.ctx, export.Request{Target: args[0], Email: c.Email, Phone: c.Phone}, s.app.Grocery.Names())
	if err != nil {
		return err
	}
	return c.globals.emit(res, func(w io.Writer) {
		fmt.Fprintln(w, res.Message)
		if res.URL != "" {
			fmt.Fprintln(w, res.URL)
		}
		if res.Text != "" {
			fmt.Fprintln(w, res.Text)
		}
	})
}
