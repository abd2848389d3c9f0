package confluence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsmith/docgen/src/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(config.Confluence{
		BaseURL:  server.URL,
		Username: "bot@example.com",
		APIToken: "token",
	})
	require.NoError(t, err)
	return c, server
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.Confluence{BaseURL: "https://example.atlassian.net"})
	assert.Error(t, err)
}

func TestTestConnectionSendsBasicAuth(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/rest/api/user/current", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"accountId": "123"})
	}))

	require.NoError(t, c.TestConnection(context.Background()))
	assert.Contains(t, gotAuth, "Basic ")
}

func TestCreatePage(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/content", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "page", payload["type"])
		assert.Equal(t, "Architecture", payload["title"])
		assert.NotContains(t, payload, "ancestors")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "1001",
			"title":   "Architecture",
			"status":  "current",
			"version": map[string]int{"number": 1},
			"_links":  map[string]string{"webui": "/spaces/DOC/pages/1001"},
		})
	}))

	page, err := c.CreatePage(context.Background(), "DOC", "Architecture", "<p>body</p>", "")
	require.NoError(t, err)
	assert.Equal(t, "1001", page.ID)
	assert.Equal(t, "DOC", page.Space)
	assert.Equal(t, 1, page.Version)
	assert.Equal(t, srv.URL+"/spaces/DOC/pages/1001", page.URL)
}

func TestCreatePageWithParentSetsAncestors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		ancestors, ok := payload["ancestors"].([]any)
		require.True(t, ok)
		require.Len(t, ancestors, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "1002"})
	}))

	_, err := c.CreatePage(context.Background(), "DOC", "Child", "<p>x</p>", "999")
	require.NoError(t, err)
}

func TestUpdatePageFetchesVersionWhenUnset(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/rest/api/content/1001", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "1001",
				"title":   "Architecture",
				"version": map[string]int{"number": 4},
			})
		case http.MethodPut:
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			version := payload["version"].(map[string]any)
			assert.Equal(t, float64(5), version["number"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "1001",
				"version": map[string]int{"number": 5},
			})
		}
	}))

	page, err := c.UpdatePage(context.Background(), "1001", "Architecture", "<p>new</p>", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Version)
}

func TestGetPage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "body.storage,version", r.URL.Query().Get("expand"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "1001",
			"title": "Architecture",
			"body": map[string]any{
				"storage": map[string]string{"value": "<p>stored</p>"},
			},
			"version": map[string]int{"number": 3},
		})
	}))

	page, err := c.GetPage(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "<p>stored</p>", page.Body)
	assert.Equal(t, 3, page.Version)
}

func TestSearchPages(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cql := r.URL.Query().Get("cql")
		assert.Contains(t, cql, `space = "DOC"`)
		assert.Contains(t, cql, `title ~ "Architecture"`)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"id":      "1001",
					"title":   "Architecture",
					"version": map[string]int{"number": 2},
					"_links":  map[string]string{"webui": "/x"},
				},
			},
		})
	}))

	pages, err := c.SearchPages(context.Background(), "DOC", "Architecture")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "1001", pages[0].ID)
	assert.Equal(t, 2, pages[0].Version)
	assert.Equal(t, "DOC", pages[0].Space)
}

func TestCreateOrUpdatePageUpdatesExactTitleMatch(t *testing.T) {
	var updated bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/api/content/search":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"id": "2001", "title": "Architecture Overview", "version": map[string]int{"number": 1}},
					{"id": "2002", "title": "Architecture", "version": map[string]int{"number": 7}},
				},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/rest/api/content/2002":
			updated = true
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			version := payload["version"].(map[string]any)
			assert.Equal(t, float64(8), version["number"])
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "2002", "version": map[string]int{"number": 8}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	page, err := c.CreateOrUpdatePage(context.Background(), "DOC", "Architecture", "<p>v8</p>", "")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "2002", page.ID)
}

func TestCreateOrUpdatePageCreatesWhenMissing(t *testing.T) {
	var created bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/api/content/search":
			_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
		case r.Method == http.MethodPost && r.URL.Path == "/rest/api/content":
			created = true
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "3001"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	page, err := c.CreateOrUpdatePage(context.Background(), "DOC", "Brand New", "<p>x</p>", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "3001", page.ID)
}

func TestRequestSurfacesErrorBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"no permission"}`))
	}))

	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "no permission")
}

func TestDeletePage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rest/api/content/1001", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	assert.NoError(t, c.DeletePage(context.Background(), "1001"))
}
