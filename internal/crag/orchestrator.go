package crag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultStepBudget bounds the total steps of one turn, which in practice
// bounds the crawl and tool-invocation cycle.
const DefaultStepBudget = 25

// DefaultThread is the session token used when the caller does not name one.
const DefaultThread = "default"

// Orchestrator runs the corrective answer loop. Construct with New; the
// zero value is not usable.
//
// A single turn executes sequentially. Turns for distinct conversation keys
// run concurrently; turns for the same key are serialized by a per-key lock
// so two in-flight turns can never interleave state.
type Orchestrator struct {
	store    StateStore
	searcher Searcher
	gen      Generator
	tools    ToolInvoker
	budget   int
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Config carries the orchestrator's collaborators.
type Config struct {
	Store     StateStore
	Searcher  Searcher
	Generator Generator
	Tools     ToolInvoker

	// StepBudget bounds steps per turn; zero means DefaultStepBudget.
	StepBudget int

	// Logger may be nil for slog.Default.
	Logger *slog.Logger
}

// New creates an Orchestrator. All four collaborators are required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("crag: state store is required")
	}
	if cfg.Searcher == nil {
		return nil, errors.New("crag: searcher is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("crag: generator is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("crag: tool invoker is required")
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = DefaultStepBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Orchestrator{
		store:    cfg.Store,
		searcher: cfg.Searcher,
		gen:      cfg.Generator,
		tools:    cfg.Tools,
		budget:   cfg.StepBudget,
		logger:   cfg.Logger,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	thread string
}

// WithThread selects the session token for conversation continuity.
// Distinct tokens under the same owner are independent conversations.
func WithThread(token string) RunOption {
	return func(cfg *runConfig) {
		if token != "" {
			cfg.thread = token
		}
	}
}

// Key derives the conversation key for an owner and session token.
func Key(ownerID, thread string) string {
	if thread == "" {
		thread = DefaultThread
	}
	return ownerID + "#" + thread
}

// Run executes one full turn: load or create the conversation state for the
// derived key, append the question as a user message, drive the loop to its
// terminal step, and persist the state after every completed step. It
// returns the final answer text.
//
// A failure mid-turn leaves the state persisted only up to the last
// completed step checkpoint; prior turns are never touched.
func (o *Orchestrator) Run(ctx context.Context, question, ownerID string, opts ...RunOption) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("%w: owner identity is required", ErrMissingInput)
	}

	cfg := runConfig{thread: DefaultThread}
	for _, opt := range opts {
		opt(&cfg)
	}
	key := Key(ownerID, cfg.thread)

	// Serialize in-flight turns per conversation key.
	lock := o.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	st, err := o.store.Load(ctx, key)
	switch {
	case errors.Is(err, ErrStateNotFound):
		st = &State{OwnerID: ownerID}
	case err != nil:
		return "", fmt.Errorf("loading conversation %q: %w", key, err)
	}

	st.resetTurn()
	st.Append(Message{Role: RoleUser, Content: question})

	if err := o.runGraph(ctx, key, st); err != nil {
		return "", err
	}

	last, ok := st.LastMessage()
	if !ok {
		return "", fmt.Errorf("%w: turn finished with empty history", ErrMalformedState)
	}
	return last.Content, nil
}

// runGraph drives the state machine from retrieve to the terminal step,
// checkpointing state after each completed step.
func (o *Orchestrator) runGraph(ctx context.Context, key string, st *State) error {
	current := NodeRetrieve
	for step := 0; current != nodeEnd; step++ {
		if step >= o.budget {
			return fmt.Errorf("%w: %d steps without an answer (question %q)",
				ErrStepBudgetExceeded, step, st.Question)
		}

		next, err := o.execute(ctx, current, st)
		if err != nil {
			return fmt.Errorf("step %s: %w", current, err)
		}

		if err := o.store.Save(ctx, key, st); err != nil {
			return fmt.Errorf("checkpointing after %s: %w", current, err)
		}

		o.logger.Debug("step completed", "key", key, "step", current, "next", next)
		current = next
	}
	return nil
}

// execute runs one node and returns the next per the transition table.
func (o *Orchestrator) execute(ctx context.Context, node Node, st *State) (Node, error) {
	switch node {
	case NodeRetrieve:
		if err := o.retrieve(ctx, st); err != nil {
			return "", err
		}
		return NodeGrade, nil

	case NodeGrade:
		if err := o.grade(ctx, st); err != nil {
			return "", err
		}
		return GradeRoute(st.Verdict), nil

	case NodeRephrase:
		if err := o.rephrase(ctx, st); err != nil {
			return "", err
		}
		return NodeCrawl, nil

	case NodeCrawl:
		if err := o.crawl(ctx, st); err != nil {
			return "", err
		}
		return ToolRoute(st)

	case NodeInvokeTool:
		if err := o.invokeTool(ctx, st); err != nil {
			return "", err
		}
		return NodeCrawl, nil

	case NodeRespond:
		if err := o.respond(ctx, st); err != nil {
			return "", err
		}
		return nodeEnd, nil

	default:
		return "", fmt.Errorf("crag: unknown node %q", node)
	}
}

// keyLock returns the mutex serializing turns for one conversation key.
func (o *Orchestrator) keyLock(key string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[key] = lock
	}
	return lock
}
