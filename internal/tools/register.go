package tools

import (
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// QueryInput is the argument schema shared by every search tool.
type QueryInput struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

// NewDefaultRegistry builds a registry with the full research toolset:
// web search, news search, Wikipedia, Wikidata, and YouTube.
func NewDefaultRegistry(ddg DuckDuckGoConfig, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry()
	all := []Tool{
		NewWebSearch(ddg, logger),
		NewNewsSearch(ddg, logger),
		NewWikipedia(WikipediaConfig{Timeout: ddg.Timeout}, logger),
		NewWikidata(WikidataConfig{Timeout: ddg.Timeout}, logger),
		NewYouTube(YouTubeConfig{Timeout: ddg.Timeout}, logger),
	}
	for _, t := range all {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DefineGenkitTools declares every registered tool with Genkit so the model
// sees their schemas during generation. The returned refs are passed to
// generate calls via ai.WithTools.
//
// The handlers delegate back into the registry. The answer loop normally
// dispatches tool requests itself, so these handlers only run when a caller
// lets Genkit auto-execute tools.
func DefineGenkitTools(g *genkit.Genkit, reg *Registry) []ai.ToolRef {
	all := reg.All()
	refs := make([]ai.ToolRef, 0, len(all))
	for _, t := range all {
		name := t.Name()
		ref := genkit.DefineTool(
			g,
			name,
			t.Description(),
			func(toolCtx *ai.ToolContext, input QueryInput) (string, error) {
				out, err := reg.Invoke(toolCtx.Context, name, map[string]any{"query": input.Query})
				if err != nil {
					return "", fmt.Errorf("tool %q: %w", name, err)
				}
				return out, nil
			},
		)
		refs = append(refs, ref)
	}
	return refs
}
