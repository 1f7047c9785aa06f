package grocery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealcart/internal/cache"
	"mealcart/internal/config"
	"mealcart/internal/export"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Manager) {
	t.Helper()
	m := loaded(t, cache.NewInMemoryCache())
	mux := http.NewServeMux()
	NewHandler(m, export.NewExporter(config.MailConfig{})).Register(mux)
	return mux, m
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, listResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var resp listResponse
	if rr.Code < 300 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestServerLifecycle(t *testing.T) {
	mux, _ := newTestMux(t)

	rr, resp := do(t, mux, http.MethodPost, "/grocery", `{"name":"Milk"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, resp.Items, 1)
	id := resp.Items[0].ID

	rr, resp = do(t, mux, http.MethodPost, "/grocery/"+id+"/toggle", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Items[0].Completed)
	assert.Equal(t, Progress{Completed: 1, Total: 1}, resp.Progress)

	rr, resp = do(t, mux, http.MethodPost, "/grocery/clear-completed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, resp.Items)
	assert.Empty(t, resp.Message)

	rr, resp = do(t, mux, http.MethodPost, "/grocery/clear-completed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "There are no completed items to clear.", resp.Message)
}

func TestServerErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	rr, _ := do(t, mux, http.MethodPost, "/grocery", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, mux, http.MethodPost, "/grocery", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, mux, http.MethodDelete, "/grocery/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, mux, http.MethodPost, "/grocery/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServerExport(t *testing.T) {
	mux, m := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/grocery/export", strings.NewReader(`{"target":"clipboard"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "empty list cannot be exported")

	_, err := m.AddItem(context.Background(), "Milk")
	require.NoError(t, err)
	_, err = m.AddItem(context.Background(), "Bread")
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/grocery/export", strings.NewReader(`{"target":"text","phone":"555"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	var res export.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "sms:555?body=Milk%0ABread", res.URL)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/grocery/export", strings.NewReader(`{"target":"email"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/grocery/export", strings.NewReader(`{"target":"email","email":"me@example.com?cc=x@example.com&bcc=y"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/grocery/export", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var targets []export.Target
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &targets))
	assert.Len(t, targets, len(export.Targets))
}
