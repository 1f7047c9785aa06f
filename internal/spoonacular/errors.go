package spoonacular

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyQuery = errors.New("search query is empty")

// StatusError captures non-2xx HTTP responses from the Spoonacular API.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401 or 403 from the API, which almost
// always means a missing or exhausted API key.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}
