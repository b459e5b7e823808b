package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCrawlSite(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/crawl", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"record_id":7,"seed_url":"https://a.example/","page_count":2,"size":"1.2 KB","tokens":300,"content":"=== A ===\nURL: https://a.example/\n\nhello"}`))
	}))
	defer srv.Close()

	h := handleCrawlSite(srv.URL, "k", srv.Client())
	res, err := h(context.Background(), toolRequest(map[string]any{
		"url": "https://a.example/", "max_depth": float64(1), "store": true,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "2 pages, 1.2 KB, ~300 tokens (record 7)")
	assert.Contains(t, text, "=== A ===")
	assert.Equal(t, "https://a.example/", got["url"])
	assert.Equal(t, float64(1), got["max_depth"])
	assert.Equal(t, true, got["store"])
	assert.NotContains(t, got, "max_pages")
}

func TestCrawlSite_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"BOT_BLOCKED","message":"HTTP 403"}}`))
	}))
	defer srv.Close()

	res, err := handleCrawlSite(srv.URL, "k", srv.Client())(context.Background(),
		toolRequest(map[string]any{"url": "https://a.example/"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "[BOT_BLOCKED] HTTP 403")
}

func TestCrawlSite_MissingURL(t *testing.T) {
	res, err := handleCrawlSite("http://unused", "k", http.DefaultClient)(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/records/3" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"record not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"record":{"id":3,"seed_url":"https://a.example/","page_count":1,"size":"10 B","content":"body"}}`))
	}))
	defer srv.Close()

	h := handleGetRecord(srv.URL, "k", srv.Client())

	res, err := h(context.Background(), toolRequest(map[string]any{"id": float64(3)}))
	require.NoError(t, err)
	assert.Equal(t, "Record 3: https://a.example/ (1 pages, 10 B)\n\nbody", resultText(t, res))

	res, err = h(context.Background(), toolRequest(map[string]any{"id": float64(4)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "NOT_FOUND")

	res, err = h(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
