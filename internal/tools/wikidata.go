package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// WikidataSearchName is the Wikidata entity lookup tool identifier.
const WikidataSearchName = "wikidata_search"

const defaultWikidataAPI = "https://www.wikidata.org/w/api.php"

// Wikidata looks up structured entities through the wbsearchentities API.
type Wikidata struct {
	apiURL     string
	maxResults int
	client     *client
	logger     *slog.Logger
}

// WikidataConfig configures the Wikidata tool.
type WikidataConfig struct {
	// APIURL overrides the Wikidata endpoint, used in tests.
	APIURL string

	// MaxResults caps the number of entities returned.
	MaxResults int

	// Timeout bounds a single API request.
	Timeout time.Duration
}

// NewWikidata creates the Wikidata entity search tool.
func NewWikidata(cfg WikidataConfig, logger *slog.Logger) *Wikidata {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultWikidataAPI
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Wikidata{
		apiURL:     cfg.APIURL,
		maxResults: cfg.MaxResults,
		client:     newClient(cfg.Timeout),
		logger:     logger,
	}
}

func (t *Wikidata) Name() string { return WikidataSearchName }

func (t *Wikidata) Description() string {
	return "Look up structured facts about entities (people, organizations, places) in Wikidata."
}

func (t *Wikidata) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {query},
		"language": {"en"},
		"limit":    {fmt.Sprint(t.maxResults)},
		"format":   {"json"},
	}

	body, err := t.client.get(ctx, t.apiURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp struct {
		Search []struct {
			ID          string `json:"id"`
			Label       string `json:"label"`
			Description string `json:"description"`
		} `json:"search"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding wikidata response: %w", err)
	}

	if len(resp.Search) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, entity := range resp.Search {
		desc := entity.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, entity.Label, entity.ID, desc)
	}

	t.logger.Debug("wikidata search completed", "query", query, "results", len(resp.Search))
	return strings.TrimSpace(b.String()), nil
}
