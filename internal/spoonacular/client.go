package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mealcart/internal/config"
	rtypes "mealcart/internal/recipes/types"
)

const (
	// DefaultLimit matches the page size the app has always requested.
	DefaultLimit = 20
	maxBody      = 4 << 20
)

var tracer = otel.Tracer("mealcart/internal/spoonacular")

// Client calls the Spoonacular recipe API.
type Client struct {
	apiKey  string
	baseURL string
	http    *retryablehttp.Client
}

// NewClient creates a Spoonacular client. Retries are off unless
// cfg.RetryMax is positive.
func NewClient(cfg config.SpoonacularConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("spoonacular API key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = config.DefaultSpoonacularURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = cfg.RetryMax
	// its own logger prints the full URL, key included
	rc.Logger = nil
	rc.RequestLogHook = logRetry
	rc.ErrorHandler = keepResponse

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}, nil
}

type searchResponse struct {
	Results      []rtypes.Recipe `json:"results"`
	TotalResults int             `json:"totalResults"`
}

type randomResponse struct {
	Recipes []rtypes.Recipe `json:"recipes"`
}

// Search runs a complex search. A blank query is rejected without touching
// the network.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]rtypes.Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("number", strconv.Itoa(limit))
	params.Set("addRecipeInformation", "true")

	var resp searchResponse
	if err := c.get(ctx, "search", "/complexSearch", params, &resp); err != nil {
		return nil, err
	}
	return summaries(resp.Results), nil
}

// Random returns count random recipes.
func (c *Client) Random(ctx context.Context, count int) ([]rtypes.Summary, error) {
	if count <= 0 {
		count = DefaultLimit
	}
	params := url.Values{}
	params.Set("number", strconv.Itoa(count))

	var resp randomResponse
	if err := c.get(ctx, "random", "/random", params, &resp); err != nil {
		return nil, err
	}
	return summaries(resp.Recipes), nil
}

// Details fetches a single recipe including nutrition data.
func (c *Client) Details(ctx context.Context, id int) (*rtypes.Recipe, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid recipe id %d", id)
	}
	params := url.Values{}
	params.Set("includeNutrition", "true")

	var recipe rtypes.Recipe
	if err := c.get(ctx, "details", "/"+strconv.Itoa(id)+"/information", params, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Bulk fetches several recipes in one call.
func (c *Client) Bulk(ctx context.Context, ids []int) ([]rtypes.Recipe, error) {
	if len(ids) == 0 {
		return []rtypes.Recipe{}, nil
	}
	params := url.Values{}
	params.Set("ids", strings.Join(lo.Map(ids, func(id int, _ int) string { return strconv.Itoa(id) }), ","))

	var out []rtypes.Recipe
	if err := c.get(ctx, "bulk", "/informationBulk", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, dest any) (err error) {
	ctx, span := tracer.Start(ctx, "spoonacular."+op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("spoonacular.path", path))

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse %s URL: %w", op, err)
	}
	// log the query before the key goes in
	slog.DebugContext(ctx, "calling spoonacular", "operation", op, "path", path, "query", params.Encode())
	params.Set("apiKey", c.apiKey)
	u.RawQuery = params.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", op, redact(err, c.apiKey))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		slog.ErrorContext(ctx, "received spoonacular error response", "operation", op, "status", resp.StatusCode)
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func summaries(list []rtypes.Recipe) []rtypes.Summary {
	return lo.Map(list, func(r rtypes.Recipe, _ int) rtypes.Summary {
		return r.AsSummary()
	})
}

func logRetry(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt > 0 {
		slog.WarnContext(req.Context(), "retrying spoonacular request", "path", req.URL.Path, "attempt", attempt)
	}
}

// keepResponse hands the last non-2xx response back to us once retries are
// spent, instead of a generic "giving up" error, so the status survives.
func keepResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// transport errors embed the full URL, key included
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
