package types

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultImage is shown for recipes the API returns without a picture.
const DefaultImage = "https://spoonacular.com/recipeImages/default-image.jpg"

// Summary is one entry of a browse or search result.
type Summary struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Image          string `json:"image"`
	ReadyInMinutes int    `json:"readyInMinutes,omitempty"`
	Servings       int    `json:"servings,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

type Ingredient struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name"`
	Original string  `json:"original,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Aisle    string  `json:"aisle,omitempty"`
}

// Label is the text a grocery list shows for the ingredient: the original
// recipe line when there is one, otherwise "amount unit name".
func (i Ingredient) Label() string {
	if s := strings.TrimSpace(i.Original); s != "" {
		return s
	}
	parts := make([]string, 0, 3)
	if i.Amount != 0 {
		parts = append(parts, strconv.FormatFloat(i.Amount, 'f', -1, 64))
	}
	if u := strings.TrimSpace(i.Unit); u != "" {
		parts = append(parts, u)
	}
	if n := strings.TrimSpace(i.Name); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, " ")
}

type Step struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

type Instruction struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Recipe is the full detail record.
type Recipe struct {
	ID                   int           `json:"id"`
	Title                string        `json:"title"`
	Image                string        `json:"image,omitempty"`
	ReadyInMinutes       int           `json:"readyInMinutes,omitempty"`
	Servings             int           `json:"servings,omitempty"`
	HealthScore          float64       `json:"healthScore,omitempty"`
	Summary              string        `json:"summary,omitempty"`
	Instructions         string        `json:"instructions,omitempty"`
	SourceURL            string        `json:"sourceUrl,omitempty"`
	ExtendedIngredients  []Ingredient  `json:"extendedIngredients"`
	AnalyzedInstructions []Instruction `json:"analyzedInstructions,omitempty"`
	Nutrition            *Nutrition    `json:"nutrition,omitempty"`
}

func (r Recipe) AsSummary() Summary {
	img := r.Image
	if img == "" {
		img = DefaultImage
	}
	return Summary{
		ID:             r.ID,
		Title:          r.Title,
		Image:          img,
		ReadyInMinutes: r.ReadyInMinutes,
		Servings:       r.Servings,
		Summary:        r.Summary,
	}
}

// Nutrient looks up a nutrient by case-insensitive name.
func (r Recipe) Nutrient(name string) (Nutrient, bool) {
	if r.Nutrition == nil {
		return Nutrient{}, false
	}
	for _, n := range r.Nutrition.Nutrients {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Nutrient{}, false
}

// PlaceholderID identifies the stand-in recipe served when details fail to load.
const PlaceholderID = 1

// Placeholder is substituted for a recipe whose details could not be fetched so
// the detail view stays usable.
func Placeholder() Recipe {
	return Recipe{
		ID:           PlaceholderID,
		Title:        "Mock Recipe",
		Image:        DefaultImage,
		Instructions: "Mix ingredients and bake.",
		ExtendedIngredients: []Ingredient{
			{Name: "flour", Original: "1 cup flour", Amount: 1, Unit: "cup"},
			{Name: "eggs", Original: "2 eggs", Amount: 2},
		},
	}
}

// PlainSummary strips the markup the API embeds in summaries.
func PlainSummary(summary string) string {
	if !strings.ContainsAny(summary, "<&") {
		return strings.TrimSpace(summary)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(summary))
	if err != nil {
		return strings.TrimSpace(summary)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
