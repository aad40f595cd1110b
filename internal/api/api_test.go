package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstack/keepstack/internal/backend/memory"
	"github.com/keepstack/keepstack/internal/backup"
	"github.com/keepstack/keepstack/internal/events"
	"github.com/keepstack/keepstack/internal/logger"
	"github.com/keepstack/keepstack/internal/model"
	"github.com/keepstack/keepstack/internal/quota"
	"github.com/keepstack/keepstack/internal/searchindex"
	"github.com/keepstack/keepstack/internal/service"
	"github.com/keepstack/keepstack/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.New("api-test")
	bus := events.NewBus(log)
	t.Cleanup(bus.Close)

	syncArea := quota.NewMonitor(memory.New(), model.AreaSync, 100*1024, 0.8, bus, log)
	localArea := quota.NewMonitor(memory.New(), model.AreaLocal, 5*1024*1024, 0.8, bus, log)
	docArea := quota.NewMonitor(memory.New(), model.AreaDocument, 0, 0.8, bus, log)

	st := store.NewManager(syncArea, localArea, docArea, bus, log)
	eng := searchindex.NewEngine(st, docArea, bus, searchindex.Config{}, log)
	require.NoError(t, eng.Load(context.Background()))
	bk := backup.NewManager(st, bus, log)
	svc := service.New(st, eng, bk, bus, log)

	router := NewRouter(Deps{
		Service:   svc,
		Monitors:  []*quota.Monitor{syncArea, localArea},
		IsHealthy: func() bool { return true },
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func captureItem(t *testing.T, srv *httptest.Server, title, url, content string) model.ContentItem {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v0/items", model.CapturePayload{
		Title: title, URL: url, Content: content,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		Item   model.ContentItem `json:"item"`
		Result model.SaveResult  `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.True(t, created.Result.Success)
	return created.Item
}

func TestItemLifecycle(t *testing.T) {
	srv := newTestServer(t)

	item := captureItem(t, srv, "Generics in Go", "https://example.com/generics", "type parameters explained")
	assert.Equal(t, model.StatusPending, item.Status)

	// Fetch (bumps view count).
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v0/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.ContentItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, 1, got.ViewCount)
	assert.Equal(t, "type parameters explained", got.Content)

	// Enrich.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/v0/items/"+item.ID, map[string]interface{}{
		"summary": "All about type parameters",
		"tags":    []string{"generics", "golang"},
		"status":  "processed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusProcessed, got.Status)
	assert.Equal(t, []string{"generics", "golang"}, got.Tags)

	// Delete.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v0/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v0/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateItemValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v0/items", model.CapturePayload{URL: "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var er struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "title is required", er.Message)
}

func TestListItemsSorted(t *testing.T) {
	srv := newTestServer(t)
	captureItem(t, srv, "Charlie", "https://example.com/c", "")
	captureItem(t, srv, "Alpha", "https://example.com/a", "")
	captureItem(t, srv, "Bravo", "https://example.com/b", "")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v0/items?sortBy=title&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Items []model.ContentItem `json:"items"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, 3, out.Count)
	assert.Equal(t, "Alpha", out.Items[0].Title)
	assert.Equal(t, "Bravo", out.Items[1].Title)
	assert.Equal(t, "Charlie", out.Items[2].Title)
}

func TestSearchEndpoints(t *testing.T) {
	srv := newTestServer(t)
	item := captureItem(t, srv, "JavaScript Testing Framework", "https://example.com/jest", "")
	captureItem(t, srv, "Cooking Recipes", "https://example.com/food", "")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v0/search", model.SearchRequest{Query: "javascript testing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.SearchResult
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Hits, 1)
	assert.Equal(t, item.ID, res.Hits[0].Item.ID)

	// The executed query shows up in history, suggestions, and analytics.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v0/search/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist struct {
		History []model.SearchHistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist.History, 1)
	assert.Equal(t, "javascript testing", hist.History[0].Query)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v0/search/suggestions?q=javascript", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sugg struct {
		Suggestions []model.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(body, &sugg))
	assert.NotEmpty(t, sugg.Suggestions)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v0/search/analytics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a model.SearchAnalytics
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Equal(t, 1, a.TotalSearches)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v0/search/history", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v0/settings", map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v0/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"theme":"dark"}`, string(body))
}

func TestBackupEndpoints(t *testing.T) {
	srv := newTestServer(t)
	item := captureItem(t, srv, "Precious Notes", "https://example.com/p", "do not lose")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v0/backups", map[string]bool{"includeContent": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)

	// Destroy, then restore.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v0/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v0/backups/%s/restore", srv.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v0/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v0/backups", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Backups []model.BackupInfo `json:"backups"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Backups, 1)
	assert.True(t, list.Backups[0].IncludesBody)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v0/backups/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v0/backups/%s/restore", srv.URL, created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuotaEndpoint(t *testing.T) {
	srv := newTestServer(t)
	captureItem(t, srv, "Takes Up Space", "https://example.com/s", "some content bytes")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v0/quota", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Areas []model.QuotaUsage `json:"areas"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Areas, 2)
	assert.Equal(t, model.AreaSync, out.Areas[0].Area)
	assert.Equal(t, model.AreaLocal, out.Areas[1].Area)
	assert.Positive(t, out.Areas[1].BytesInUse, "projection write lands in the local area")
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v0/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "healthy", out.Status)
}
