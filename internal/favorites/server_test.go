package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealcart/internal/cache"
	rtypes "mealcart/internal/recipes/types"
)

type fakeBulk struct {
	recipes []rtypes.Recipe
	err     error
	asked   []int
}

func (f *fakeBulk) Bulk(_ context.Context, ids []int) ([]rtypes.Recipe, error) {
	f.asked = ids
	return f.recipes, f.err
}

func newTestServer(t *testing.T, bulk *fakeBulk) (*http.ServeMux, *Manager, *IDList) {
	t.Helper()
	c := cache.NewInMemoryCache()
	m := loaded(t, c)
	l := NewIDList(c)
	require.NoError(t, l.Load(context.Background()))

	mux := http.NewServeMux()
	NewHandler(m, l, bulk).Register(mux)
	return mux, m, l
}

func TestServerListAndRemove(t *testing.T) {
	mux, m, _ := newTestServer(t, &fakeBulk{})
	ctx := context.Background()
	require.NoError(t, m.Add(ctx, Recipe{ID: 1, Title: "Soup"}))
	require.NoError(t, m.Add(ctx, Recipe{ID: 2, Title: "Bread"}))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/favorites", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/favorites/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{2}, m.IDs())

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/favorites/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServerToggleIDsAndBulk(t *testing.T) {
	bulk := &fakeBulk{recipes: []rtypes.Recipe{{ID: 7, Title: "Curry"}}}
	mux, _, l := newTestServer(t, bulk)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/favorites/ids", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ids":[],"recipes":[]}`, rr.Body.String())
	assert.Nil(t, bulk.asked, "no ids should skip the bulk call")

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/favorites/ids/7", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":7,"favorite":true}`, rr.Body.String())
	assert.True(t, l.Contains(7))

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/favorites/ids", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp idsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []int{7}, bulk.asked)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, rtypes.DefaultImage, resp.Recipes[0].Image)
}

func TestServerBulkFailure(t *testing.T) {
	bulk := &fakeBulk{err: errors.New("offline")}
	mux, _, l := newTestServer(t, bulk)
	_, err := l.Toggle(context.Background(), 3)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/favorites/ids", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var resp idsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, LoadFailedMessage, resp.Error)
	assert.Equal(t, []int{3}, resp.IDs)
}

func TestServerToggleZeroID(t *testing.T) {
	mux, _, _ := newTestServer(t, &fakeBulk{})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/favorites/ids/0", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
