package spoonacular

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"mealcart/internal/config"
	rtypes "mealcart/internal/recipes/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	client, err := NewClient(config.SpoonacularConfig{
		APIKey:     "secret-key",
		BaseURL:    server.URL + "/recipes",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(config.SpoonacularConfig{APIKey: "  "}); err == nil {
		t.Fatal("expected error for blank api key")
	}
}

func TestSearch_SetsQueryAndMapsDefaultImage(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		_, _ = w.Write([]byte(`{"results":[{"id":7,"title":"Tomato Soup","readyInMinutes":20},{"id":8,"title":"Toast","image":"http://img/8.jpg"}],"totalResults":2}`))
	})

	got, err := client.Search(context.Background(), "  soup ", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Image != rtypes.DefaultImage {
		t.Fatalf("expected default image, got %q", got[0].Image)
	}
	if got[1].Image != "http://img/8.jpg" {
		t.Fatalf("unexpected image: %q", got[1].Image)
	}
	if got[0].ReadyInMinutes != 20 {
		t.Fatalf("unexpected ready time: %d", got[0].ReadyInMinutes)
	}

	if captured.URL.Path != "/recipes/complexSearch" {
		t.Fatalf("unexpected path: %s", captured.URL.Path)
	}
	q := captured.URL.Query()
	if q.Get("query") != "soup" {
		t.Fatalf("unexpected query: %q", q.Get("query"))
	}
	if q.Get("number") != "20" {
		t.Fatalf("unexpected number: %q", q.Get("number"))
	}
	if q.Get("addRecipeInformation") != "true" {
		t.Fatalf("expected addRecipeInformation=true, got %q", q.Get("addRecipeInformation"))
	}
	if q.Get("apiKey") != "secret-key" {
		t.Fatalf("expected api key in query, got %q", q.Get("apiKey"))
	}
}

func TestSearch_EmptyQueryMakesNoRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Search(context.Background(), "   ", 10)
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
}

func TestRandom_UsesCount(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		_, _ = w.Write([]byte(`{"recipes":[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":3,"title":"C"}]}`))
	})

	got, err := client.Random(context.Background(), 3)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(got) != 3 || got[2].Title != "C" {
		t.Fatalf("unexpected recipes: %+v", got)
	}
	if captured.URL.Path != "/recipes/random" {
		t.Fatalf("unexpected path: %s", captured.URL.Path)
	}
	if captured.URL.Query().Get("number") != "3" {
		t.Fatalf("unexpected number: %q", captured.URL.Query().Get("number"))
	}
}

func TestDetails_IncludesNutrition(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		_, _ = w.Write([]byte(`{"id":42,"title":"Stew","extendedIngredients":[{"name":"beef","original":"1 lb beef"}],"nutrition":{"nutrients":[{"name":"Calories","amount":512.5,"unit":"kcal"}]}}`))
	})

	recipe, err := client.Details(context.Background(), 42)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if recipe.Title != "Stew" || len(recipe.ExtendedIngredients) != 1 {
		t.Fatalf("unexpected recipe: %+v", recipe)
	}
	if n, ok := recipe.Nutrient("calories"); !ok || n.Amount != 512.5 {
		t.Fatalf("unexpected calories: %+v %v", n, ok)
	}
	if captured.URL.Path != "/recipes/42/information" {
		t.Fatalf("unexpected path: %s", captured.URL.Path)
	}
	if captured.URL.Query().Get("includeNutrition") != "true" {
		t.Fatal("expected includeNutrition=true")
	}
}

func TestDetails_AuthError(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"invalid key"}`, status)
		})
		_, err := client.Details(context.Background(), 5)
		if !IsAuthError(err) {
			t.Fatalf("status %d: expected auth error, got %v", status, err)
		}
	}
}

func TestDetails_ServerErrorIsStatusError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Details(context.Background(), 5)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T %v", err, err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Operation != "details" {
		t.Fatalf("unexpected status error: %+v", se)
	}
	if IsAuthError(err) {
		t.Fatal("500 should not be an auth error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatal("error leaked api key")
	}
}

func TestDetails_RetriesWhenConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":9,"title":"Retry Pie"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(config.SpoonacularConfig{
		APIKey:     "k",
		BaseURL:    server.URL,
		RetryMax:   1,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.http.RetryWaitMin = 0
	client.http.RetryWaitMax = 0

	recipe, err := client.Details(context.Background(), 9)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if recipe.Title != "Retry Pie" || calls.Load() != 2 {
		t.Fatalf("unexpected result %+v after %d calls", recipe, calls.Load())
	}
}

func TestBulk_JoinsIDs(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		_, _ = w.Write([]byte(`[{"id":1,"title":"One"},{"id":2,"title":"Two"}]`))
	})

	got, err := client.Bulk(context.Background(), []int{1, 2})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected recipes: %+v", got)
	}
	if captured.URL.Path != "/recipes/informationBulk" || captured.URL.Query().Get("ids") != "1,2" {
		t.Fatalf("unexpected request: %s", captured.URL.String())
	}
}

func TestBulk_EmptySkipsRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	got, err := client.Bulk(context.Background(), nil)
	if err != nil || len(got) != 0 || calls.Load() != 0 {
		t.Fatalf("unexpected bulk result: %v %v %d", got, err, calls.Load())
	}
}

func TestMock(t *testing.T) {
	t.Parallel()

	src, err := New(&config.Config{Mocks: config.MocksConfig{Enable: true}})
	if err != nil {
		t.Fatalf("new mock: %v", err)
	}
	ctx := context.Background()

	random, err := src.Random(ctx, 2)
	if err != nil || len(random) != 2 {
		t.Fatalf("random: %v %v", random, err)
	}
	if _, err := src.Search(ctx, "", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	hits, err := src.Search(ctx, "jambalaya", 5)
	if err != nil || len(hits) != 1 || hits[0].ID != 782601 {
		t.Fatalf("search: %v %v", hits, err)
	}
	recipe, err := src.Details(ctx, 715538)
	if err != nil || recipe.Title != "Bruschetta Style Pork & Pasta" {
		t.Fatalf("details: %v %v", recipe, err)
	}
	if _, err := src.Details(ctx, 123); err == nil {
		t.Fatal("expected error for unknown recipe")
	}
	bulk, err := src.Bulk(ctx, []int{782601, 99})
	if err != nil || len(bulk) != 1 {
		t.Fatalf("bulk: %v %v", bulk, err)
	}
}
