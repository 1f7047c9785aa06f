package types

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Filter narrows an already loaded page of recipes by title. Titles that
// contain the query come first, followed by looser in-order character matches.
// A blank query returns the list unchanged.
func Filter(list []Summary, query string) []Summary {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	needle := strings.ToLower(query)

	exact := make([]Summary, 0, len(list))
	var loose []Summary
	for _, s := range list {
		title := strings.ToLower(s.Title)
		switch {
		case strings.Contains(title, needle):
			exact = append(exact, s)
		case fuzzy.MatchFold(needle, title):
			loose = append(loose, s)
		}
	}
	return append(exact, loose...)
}
