package tools

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// WebSearchName is the general web search tool identifier.
	WebSearchName = "web_search"

	// NewsSearchName is the recent-news search tool identifier.
	NewsSearchName = "latest_news_search"

	defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"
	defaultMaxResults    = 5
)

// DuckDuckGoConfig configures the DuckDuckGo-backed search tools.
type DuckDuckGoConfig struct {
	// BaseURL overrides the search endpoint, used in tests.
	BaseURL string

	// Region biases news results, e.g. "in-en".
	Region string

	// MaxResults caps the number of results per search.
	MaxResults int

	// Timeout bounds a single search request.
	Timeout time.Duration
}

func (c *DuckDuckGoConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultDuckDuckGoURL
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaultMaxResults
	}
}

// WebSearch is the general-purpose web search tool.
type WebSearch struct {
	cfg    DuckDuckGoConfig
	client *client
	logger *slog.Logger
}

// NewWebSearch creates the web search tool.
func NewWebSearch(cfg DuckDuckGoConfig, logger *slog.Logger) *WebSearch {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSearch{cfg: cfg, client: newClient(cfg.Timeout), logger: logger}
}

func (t *WebSearch) Name() string { return WebSearchName }

func (t *WebSearch) Description() string {
	return "Search the web for information on any topic. Use for general research questions."
}

func (t *WebSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	params := url.Values{"q": {query}}
	return duckduckgoSearch(ctx, t.client, t.cfg, params, t.logger)
}

// NewsSearch searches recent news. It restricts results to the last day and
// biases toward the configured region.
type NewsSearch struct {
	cfg    DuckDuckGoConfig
	client *client
	logger *slog.Logger
}

// NewNewsSearch creates the news search tool.
func NewNewsSearch(cfg DuckDuckGoConfig, logger *slog.Logger) *NewsSearch {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &NewsSearch{cfg: cfg, client: newClient(cfg.Timeout), logger: logger}
}

func (t *NewsSearch) Name() string { return NewsSearchName }

func (t *NewsSearch) Description() string {
	return "Search for news from the last day. Use for current events and breaking stories."
}

func (t *NewsSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	params := url.Values{"q": {query}, "df": {"d"}}
	if t.cfg.Region != "" {
		params.Set("kl", t.cfg.Region)
	}
	return duckduckgoSearch(ctx, t.client, t.cfg, params, t.logger)
}

// duckduckgoSearch runs one query against the HTML endpoint and formats the
// organic results as a numbered list of title, URL, and snippet.
func duckduckgoSearch(ctx context.Context, c *client, cfg DuckDuckGoConfig, params url.Values, logger *slog.Logger) (string, error) {
	body, err := c.get(ctx, cfg.BaseURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing search results: %w", err)
	}

	var b strings.Builder
	count := 0
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find("a.result__a").Text())
		if title == "" {
			return true
		}
		href, _ := sel.Find("a.result__a").Attr("href")
		snippet := strings.TrimSpace(sel.Find("a.result__snippet").Text())

		count++
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", count, title, resolveRedirect(href), snippet)
		return count < cfg.MaxResults
	})

	logger.Debug("search completed", "query", params.Get("q"), "results", count)
	if count == 0 {
		return "No results found.", nil
	}
	return strings.TrimSpace(b.String()), nil
}

// resolveRedirect unwraps the uddg redirect parameter DuckDuckGo wraps
// result links in. Unwrappable links are returned as-is.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
