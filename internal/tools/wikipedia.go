package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WikipediaSearchName is the Wikipedia lookup tool identifier.
const WikipediaSearchName = "wikipedia_search"

const defaultWikipediaAPI = "https://en.wikipedia.org/w/api.php"

// Wikipedia searches Wikipedia article titles and snippets through the
// MediaWiki search API.
type Wikipedia struct {
	apiURL     string
	maxResults int
	client     *client
	logger     *slog.Logger
}

// WikipediaConfig configures the Wikipedia tool.
type WikipediaConfig struct {
	// APIURL overrides the MediaWiki endpoint, used in tests.
	APIURL string

	// MaxResults caps the number of articles returned.
	MaxResults int

	// Timeout bounds a single API request.
	Timeout time.Duration
}

// NewWikipedia creates the Wikipedia search tool.
func NewWikipedia(cfg WikipediaConfig, logger *slog.Logger) *Wikipedia {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultWikipediaAPI
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Wikipedia{
		apiURL:     cfg.APIURL,
		maxResults: cfg.MaxResults,
		client:     newClient(cfg.Timeout),
		logger:     logger,
	}
}

func (t *Wikipedia) Name() string { return WikipediaSearchName }

func (t *Wikipedia) Description() string {
	return "Search Wikipedia for encyclopedic information about people, places, events, and concepts."
}

func (t *Wikipedia) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(t.maxResults)},
		"format":   {"json"},
	}

	body, err := t.client.get(ctx, t.apiURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding wikipedia response: %w", err)
	}

	if len(resp.Query.Search) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, hit := range resp.Query.Search {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, hit.Title, stripHTML(hit.Snippet))
	}

	t.logger.Debug("wikipedia search completed", "query", query, "results", len(resp.Query.Search))
	return strings.TrimSpace(b.String()), nil
}

// stripHTML removes the highlight markup MediaWiki embeds in snippets.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
