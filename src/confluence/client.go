package confluence

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docsmith/docgen/src/config"
	"github.com/docsmith/docgen/src/webclient"
)

// Client talks to the Confluence REST API using basic auth.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

// Page describes a created or updated Confluence page.
type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Space   string `json:"space,omitempty"`
	Version int    `json:"version,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PageContent is a fetched page with its storage body.
type PageContent struct {
	ID      string
	Title   string
	Body    string
	Version int
}

func New(cfg config.Confluence) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Username == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("confluence: base URL, username, and API token are required")
	}
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.APIToken))
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + creds,
		httpClient: webclient.NewDefault(30 * time.Second),
	}, nil
}

// TestConnection verifies credentials against the current-user endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, "/rest/api/user/current", nil)
	if err != nil {
		return fmt.Errorf("confluence: connection test failed: %w", err)
	}
	return nil
}

// GetSpace fetches space metadata.
func (c *Client) GetSpace(ctx context.Context, spaceKey string) (map[string]any, error) {
	body, err := c.request(ctx, http.MethodGet, "/rest/api/space/"+url.PathEscape(spaceKey), nil)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePage creates a page in the space, optionally under a parent.
func (c *Client) CreatePage(ctx context.Context, space, title, storageBody, parentID string) (*Page, error) {
	payload := map[string]any{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": space},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          storageBody,
				"representation": "storage",
			},
		},
	}
	if parentID != "" {
		payload["ancestors"] = []map[string]string{{"id": parentID}}
	}

	body, err := c.request(ctx, http.MethodPost, "/rest/api/content", payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: create page %q: %w", title, err)
	}
	return c.parsePage(body, space), nil
}

// UpdatePage replaces a page's body, bumping the version. A zero version
// triggers a fetch of the current one.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, storageBody string, version int) (*Page, error) {
	if version <= 0 {
		current, err := c.GetPage(ctx, pageID)
		if err != nil {
			return nil, err
		}
		version = current.Version + 1
	}

	payload := map[string]any{
		"id":      pageID,
		"type":    "page",
		"title":   title,
		"version": map[string]int{"number": version},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          storageBody,
				"representation": "storage",
			},
		},
	}

	body, err := c.request(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(pageID), payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: update page %s: %w", pageID, err)
	}
	return c.parsePage(body, ""), nil
}

// GetPage fetches a page with its storage body and version.
func (c *Client) GetPage(ctx context.Context, pageID string) (*PageContent, error) {
	body, err := c.request(ctx, http.MethodGet,
		"/rest/api/content/"+url.PathEscape(pageID)+"?expand=body.storage,version", nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: get page %s: %w", pageID, err)
	}

	var raw struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Body  struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
		Version struct {
			Number int `json:"number"`
		} `json:"version"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &PageContent{
		ID:      raw.ID,
		Title:   raw.Title,
		Body:    raw.Body.Storage.Value,
		Version: raw.Version.Number,
	}, nil
}

// SearchPages finds pages in a space whose title matches the query via CQL.
func (c *Client) SearchPages(ctx context.Context, space, titleQuery string) ([]Page, error) {
	cql := fmt.Sprintf(`space = "%s" AND title ~ "%s"`, space, titleQuery)
	endpoint := "/rest/api/content/search?cql=" + url.QueryEscape(cql) + "&expand=version"

	body, err := c.request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: search pages: %w", err)
	}

	var raw struct {
		Results []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Version struct {
				Number int `json:"number"`
			} `json:"version"`
			Links struct {
				WebUI string `json:"webui"`
			} `json:"_links"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, len(raw.Results))
	for _, r := range raw.Results {
		pages = append(pages, Page{
			ID:      r.ID,
			Title:   r.Title,
			URL:     c.baseURL + r.Links.WebUI,
			Version: r.Version.Number,
			Space:   space,
		})
	}
	return pages, nil
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/rest/api/content/"+url.PathEscape(pageID), nil)
	if err != nil {
		return fmt.Errorf("confluence: delete page %s: %w", pageID, err)
	}
	return nil
}

// CreateOrUpdatePage updates the page with an exact title match in the space
// or creates one when none exists.
func (c *Client) CreateOrUpdatePage(ctx context.Context, space, title, storageBody, parentID string) (*Page, error) {
	existing, err := c.SearchPages(ctx, space, title)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Title == title {
			return c.UpdatePage(ctx, p.ID, title, storageBody, p.Version+1)
		}
	}
	return c.CreatePage(ctx, space, title, storageBody, parentID)
}

func (c *Client) parsePage(body []byte, space string) *Page {
	var raw struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Status  string `json:"status"`
		Version struct {
			Number int `json:"number"`
		} `json:"version"`
		Links struct {
			WebUI string `json:"webui"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return &Page{}
	}
	return &Page{
		ID:      raw.ID,
		Title:   raw.Title,
		URL:     c.baseURL + raw.Links.WebUI,
		Space:   space,
		Version: raw.Version.Number,
		Status:  raw.Status,
	}
}

func (c *Client) request(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = b
	}

	status, body, err := webclient.DoWithRetry(ctx, 3, 2*time.Second, func() (int, []byte, error) {
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		return resp.StatusCode, b, nil
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("status %d: %s", status, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
