// Package tools provides the web research tools the answer loop can call
// when retrieved passages are not relevant: web search, news search,
// Wikipedia, Wikidata, and YouTube lookup.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for tool dispatch.
var (
	// ErrDuplicateTool indicates a tool name was registered twice.
	ErrDuplicateTool = errors.New("tools: duplicate tool name")

	// ErrUnknownTool indicates a dispatch request named an unregistered tool.
	ErrUnknownTool = errors.New("tools: unknown tool")

	// ErrMissingQuery indicates tool arguments lacked a query string.
	ErrMissingQuery = errors.New("tools: missing query argument")
)

// Tool is a callable research tool. Tools receive loosely typed arguments
// because tool calls arrive as model-generated JSON; each tool validates
// what it needs.
type Tool interface {
	// Name returns the unique identifier the model calls the tool by.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Invoke executes the tool and returns its textual result.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the tools available to the answer loop and dispatches
// model tool requests to them.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a second tool under an existing name
// fails with ErrDuplicateTool.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke dispatches a call to the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools ordered by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// queryArg extracts the query string every search tool requires.
func queryArg(args map[string]any) (string, error) {
	v, ok := args["query"]
	if !ok {
		return "", ErrMissingQuery
	}
	q, ok := v.(string)
	if !ok || q == "" {
		return "", ErrMissingQuery
	}
	return q, nil
}
