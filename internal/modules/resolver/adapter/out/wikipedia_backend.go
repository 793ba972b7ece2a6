package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"notebook/internal/modules/resolver/domain"
	resolverout "notebook/internal/modules/resolver/port/out"
)

const (
	DefaultWikipediaEndpoint = "https://en.wikipedia.org/w/api.php"
	DefaultArticleBase       = "https://en.wikipedia.org/"
	defaultUserAgent         = "notebook/1.0 (topic link notebook)"
	maxResponseBytes         = 1 << 20
)

type WikipediaConfig struct {
	Endpoint    string
	ArticleBase string
	UserAgent   string
	HTTPClient  *http.Client
}

// WikipediaBackend runs a full-text search and links the first hit by page id.
type WikipediaBackend struct {
	endpoint    string
	articleBase string
	userAgent   string
	client      *http.Client
}

type searchResponse struct {
	Query struct {
		Search []struct {
			PageID int64  `json:"pageid"`
			Title  string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func NewWikipediaBackend(cfg WikipediaConfig) resolverout.Backend {
	b := &WikipediaBackend{
		endpoint:    cfg.Endpoint,
		articleBase: cfg.ArticleBase,
		userAgent:   cfg.UserAgent,
		client:      cfg.HTTPClient,
	}
	if b.endpoint == "" {
		b.endpoint = DefaultWikipediaEndpoint
	}
	if b.articleBase == "" {
		b.articleBase = DefaultArticleBase
	}
	if b.userAgent == "" {
		b.userAgent = defaultUserAgent
	}
	if b.client == nil {
		b.client = &http.Client{}
	}
	return b
}

func (b *WikipediaBackend) Name() string { return "wikipedia" }

func (b *WikipediaBackend) Lookup(ctx context.Context, topic string) (string, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u.RawQuery = url.Values{
		"action":   []string{"query"},
		"list":     []string{"search"},
		"srsearch": []string{topic},
		"format":   []string{"json"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	payload := searchResponse{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(payload.Query.Search) == 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrNoResult, topic)
	}
	return domain.ArticleURL(b.articleBase, payload.Query.Search[0].PageID)
}
