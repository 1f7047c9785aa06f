package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mealcart/internal/favorites"
	"mealcart/internal/grocery"
	rtypes "mealcart/internal/recipes/types"
)

// emit prints v as indented JSON with --json, otherwise runs text.
func (g *GlobalFlags) emit(v any, text func(w io.Writer)) error {
	if g.JSON {
		enc := json.NewEncoder(g.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(g.out)
	return nil
}

func printSummaries(w io.Writer, list []rtypes.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No recipes found.")
		return
	}
	for _, s := range list {
		if s.ReadyInMinutes > 0 {
			fmt.Fprintf(w, "%-8d %s (%d min)\n", s.ID, s.Title, s.ReadyInMinutes)
			continue
		}
		fmt.Fprintf(w, "%-8d %s\n", s.ID, s.Title)
	}
}

func printRecipe(w io.Writer, r rtypes.Recipe, favorite bool) {
	star := ""
	if favorite {
		star = " *"
	}
	fmt.Fprintf(w, "%s%s\n", r.Title, star)
	if r.ReadyInMinutes > 0 || r.Servings > 0 {
		fmt.Fprintf(w, "Ready in %d min, serves %d\n", r.ReadyInMinutes, r.Servings)
	}
	if n, ok := r.Nutrient("Calories"); ok {
		fmt.Fprintf(w, "Calories: %.0f %s\n", n.Amount, n.Unit)
	}
	if s := rtypes.PlainSummary(r.Summary); s != "" {
		fmt.Fprintf(w, "\n%s\n", s)
	}
	fmt.Fprintln(w, "\nIngredients:")
	for i, ing := range r.ExtendedIngredients {
		fmt.Fprintf(w, "  [%d] %s\n", i, ing.Label())
	}
	steps := 0
	for _, in := range r.AnalyzedInstructions {
		for _, st := range in.Steps {
			if steps == 0 {
				fmt.Fprintln(w, "\nSteps:")
			}
			steps++
			fmt.Fprintf(w, "  %d. %s\n", st.Number, st.Step)
		}
	}
	if steps == 0 && strings.TrimSpace(r.Instructions) != "" {
		fmt.Fprintf(w, "\nInstructions:\n  %s\n", rtypes.PlainSummary(r.Instructions))
	}
}

func printFavorites(w io.Writer, list []favorites.Recipe) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No favorites yet.")
		return
	}
	for _, f := range list {
		fmt.Fprintf(w, "%-8d %s\n", f.ID, f.Title)
	}
}

func printGrocery(w io.Writer, items []grocery.Item, p grocery.Progress) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your grocery list is empty.")
		return
	}
	for _, it := range items {
		box := "[ ]"
		if it.Completed {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s  %s", box, it.ID, it.Name)
		if it.RecipeName != "" {
			line += "  (" + it.RecipeName + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d of %d done\n", p.Completed, p.Total)
}
