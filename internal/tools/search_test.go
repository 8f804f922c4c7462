package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duckduckgoHTML = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgo">Go Programming</a>
  <a class="result__snippet">Go is an open source programming language.</a>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/doc">Go Documentation</a>
  <a class="result__snippet">Official documentation for Go.</a>
</div>
</body></html>`

func TestWebSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(duckduckgoHTML))
	}))
	defer srv.Close()

	tool := NewWebSearch(DuckDuckGoConfig{BaseURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
	require.NoError(t, err)

	assert.Equal(t, "golang", gotQuery)
	assert.Contains(t, out, "1. Go Programming")
	assert.Contains(t, out, "https://example.com/go")
	assert.Contains(t, out, "2. Go Documentation")
	assert.Contains(t, out, "open source programming language")
}

func TestWebSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body></body></html>`))
	}))
	defer srv.Close()

	tool := NewWebSearch(DuckDuckGoConfig{BaseURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "nothing"})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}

func TestWebSearchMissingQuery(t *testing.T) {
	tool := NewWebSearch(DuckDuckGoConfig{}, nil)

	_, err := tool.Invoke(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, ErrMissingQuery)
}

func TestWebSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tool := NewWebSearch(DuckDuckGoConfig{BaseURL: srv.URL}, nil)
	_, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestNewsSearchSetsRegionAndDayFilter(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(duckduckgoHTML))
	}))
	defer srv.Close()

	tool := NewNewsSearch(DuckDuckGoConfig{BaseURL: srv.URL, Region: "in-en"}, nil)
	_, err := tool.Invoke(context.Background(), map[string]any{"query": "election results"})
	require.NoError(t, err)

	assert.Equal(t, []string{"election results"}, gotQuery["q"])
	assert.Equal(t, []string{"d"}, gotQuery["df"])
	assert.Equal(t, []string{"in-en"}, gotQuery["kl"])
}

func TestSearchCapsResults(t *testing.T) {
	var many string
	for range 10 {
		many += `<div class="result"><a class="result__a" href="https://example.com">Title</a><a class="result__snippet">Snippet</a></div>`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>" + many + "</body></html>"))
	}))
	defer srv.Close()

	tool := NewWebSearch(DuckDuckGoConfig{BaseURL: srv.URL, MaxResults: 3}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)

	assert.Contains(t, out, "3. Title")
	assert.NotContains(t, out, "4. Title")
}

func TestWikipediaSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		_, _ = w.Write([]byte(`{"query":{"search":[
			{"title":"Go (programming language)","snippet":"<span class=\"searchmatch\">Go</span> is a statically typed language."},
			{"title":"Golang (disambiguation)","snippet":"Golang may refer to"}
		]}}`))
	}))
	defer srv.Close()

	tool := NewWikipedia(WikipediaConfig{APIURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "golang"})
	require.NoError(t, err)

	assert.Contains(t, out, "1. Go (programming language)")
	assert.Contains(t, out, "Go is a statically typed language.")
	assert.NotContains(t, out, "searchmatch")
}

func TestWikipediaNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer srv.Close()

	tool := NewWikipedia(WikipediaConfig{APIURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "zzzz"})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}

func TestWikidataSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wbsearchentities", r.URL.Query().Get("action"))
		_, _ = w.Write([]byte(`{"search":[
			{"id":"Q37227","label":"Go","description":"programming language"},
			{"id":"Q1","label":"universe","description":""}
		]}`))
	}))
	defer srv.Close()

	tool := NewWikidata(WikidataConfig{APIURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)

	assert.Contains(t, out, "Go (Q37227): programming language")
	assert.Contains(t, out, "universe (Q1): (no description)")
}

func TestYouTubeSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go tutorial", r.URL.Query().Get("search_query"))
		_, _ = w.Write([]byte(`var ytInitialData =
			{"videoId":"dQw4w9WgXcQ","x":1}
			{"videoId":"dQw4w9WgXcQ"}
			{"videoId":"abcdefghijk"}`))
	}))
	defer srv.Close()

	tool := NewYouTube(YouTubeConfig{BaseURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "go tutorial"})
	require.NoError(t, err)

	assert.Contains(t, out, "1. https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.Contains(t, out, "2. https://www.youtube.com/watch?v=abcdefghijk")
	// Duplicate video IDs are collapsed.
	assert.NotContains(t, out, "3.")
}

func TestYouTubeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	tool := NewYouTube(YouTubeConfig{BaseURL: srv.URL}, nil)
	out, err := tool.Invoke(context.Background(), map[string]any{"query": "zzzz"})
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}
