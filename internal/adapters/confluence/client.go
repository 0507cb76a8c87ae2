// Package confluence lists pages from the Confluence REST API.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// Config holds connection settings
type Config struct {
	BaseURL           string // e.g. https://example.atlassian.net/wiki
	Email             string
	APIToken          string
	PageSize          int
	MaxItemsPerRun    int // 0 means unlimited
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client implements ports.ContentSource
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Ensure Client implements ports.ContentSource
var _ ports.ContentSource = (*Client)(nil)

// NewClient creates a Confluence client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger.With(slog.String("component", "confluence")),
	}
}

type contentPage struct {
	Results []content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
	Links   struct {
		Next string `json:"next"`
		Base string `json:"base"`
	} `json:"_links"`
}

type content struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

// ListItems pages through every current page in the space. When
// MaxItemsPerRun stops the listing early the items read so far are returned
// with an error wrapping ports.ErrListingTruncated.
func (c *Client) ListItems(ctx context.Context, collectionKey string) ([]domain.RemoteItem, error) {
	var items []domain.RemoteItem
	start := 0

	for {
		q := url.Values{}
		q.Set("spaceKey", collectionKey)
		q.Set("type", "page")
		q.Set("status", "current")
		q.Set("expand", "body.storage,version,ancestors")
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(c.cfg.PageSize))

		var page contentPage
		if err := c.get(ctx, "/rest/api/content", q, &page); err != nil {
			return nil, fmt.Errorf("list %s at %d: %w", collectionKey, start, err)
		}

		for i, r := range page.Results {
			items = append(items, c.toRemoteItem(collectionKey, page.Links.Base, r))
			if c.cfg.MaxItemsPerRun > 0 && len(items) >= c.cfg.MaxItemsPerRun {
				if i == len(page.Results)-1 && page.Links.Next == "" {
					break
				}
				c.logger.Warn("item cap reached",
					slog.String("collection", collectionKey),
					slog.Int("max_items", c.cfg.MaxItemsPerRun))
				return items, fmt.Errorf("%s capped at %d items: %w", collectionKey, c.cfg.MaxItemsPerRun, ports.ErrListingTruncated)
			}
		}

		if page.Links.Next == "" || len(page.Results) == 0 {
			break
		}
		start += len(page.Results)
	}

	c.logger.Debug("listed collection", slog.String("collection", collectionKey), slog.Int("items", len(items)))
	return items, nil
}

func (c *Client) toRemoteItem(collectionKey, linkBase string, r content) domain.RemoteItem {
	lineage := make([]string, 0, len(r.Ancestors))
	for _, a := range r.Ancestors {
		lineage = append(lineage, a.Title)
	}

	if linkBase == "" {
		linkBase = c.baseURL
	}
	sourceURL := ""
	if r.Links.WebUI != "" {
		sourceURL = strings.TrimRight(linkBase, "/") + r.Links.WebUI
	}

	return domain.RemoteItem{
		ID:            r.ID,
		CollectionKey: collectionKey,
		Title:         r.Title,
		Version:       r.Version.Number,
		RawContent:    r.Body.Storage.Value,
		Lineage:       lineage,
		SourceURL:     sourceURL,
	}
}

// TestConnection checks that the API is reachable and the credentials work
func (c *Client) TestConnection(ctx context.Context) error {
	q := url.Values{}
	q.Set("limit", "1")

	var spaces struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/space", q, &spaces); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// StatusError is a non-2xx API response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("confluence returned status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Email != "" || c.cfg.APIToken != "" {
		req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
