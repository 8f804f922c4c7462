package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// YouTubeSearchName is the YouTube video lookup tool identifier.
const YouTubeSearchName = "youtube_search"

const defaultYouTubeURL = "https://www.youtube.com/results"

// Video IDs are 11 characters drawn from the base64url alphabet.
var videoIDPattern = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{11})"`)

// YouTube finds videos by scraping the results page, the same approach the
// common search libraries take since there is no keyless API.
type YouTube struct {
	baseURL    string
	maxResults int
	client     *client
	logger     *slog.Logger
}

// YouTubeConfig configures the YouTube tool.
type YouTubeConfig struct {
	// BaseURL overrides the results endpoint, used in tests.
	BaseURL string

	// MaxResults caps the number of video links returned.
	MaxResults int

	// Timeout bounds a single request.
	Timeout time.Duration
}

// NewYouTube creates the YouTube search tool.
func NewYouTube(cfg YouTubeConfig, logger *slog.Logger) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultYouTubeURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		client:     newClient(cfg.Timeout),
		logger:     logger,
	}
}

func (t *YouTube) Name() string { return YouTubeSearchName }

func (t *YouTube) Description() string {
	return "Search YouTube for videos. Use when the user asks for video content or tutorials."
}

func (t *YouTube) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}

	params := url.Values{"search_query": {query}}
	body, err := t.client.get(ctx, t.baseURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool)
	var links []string
	for _, match := range videoIDPattern.FindAllStringSubmatch(string(body), -1) {
		id := match[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, "https://www.youtube.com/watch?v="+id)
		if len(links) == t.maxResults {
			break
		}
	}

	t.logger.Debug("youtube search completed", "query", query, "results", len(links))
	if len(links) == 0 {
		return "No results found.", nil
	}

	var b strings.Builder
	for i, link := range links {
		fmt.Fprintf(&b, "%d. %s\n", i+1, link)
	}
	return strings.TrimSpace(b.String()), nil
}
