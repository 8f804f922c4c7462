package crag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// System prompts for the three fixed-instruction generation calls.
const (
	graderSystemPrompt = "You are an expert evaluator responsible for grading retrieved documents in a Retrieval Augmented Generation (RAG) system. Your task is to assess whether the retrieved context is relevant and useful in answering the question or not, also give a proper reason if the context is not relevant."

	rephraserSystemPrompt = "You are an expert in query optimization and search enhancement. Your task is to rephrase and improve user queries to make them clearer, more specific, and better suited for retrieval in a search engine or a Retrieval Augmented Generation (RAG) system."

	responderSystemPrompt = "You are an assistant for question-answering tasks. Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise."
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups transient error substrings by category, matched
// case-insensitively against err.Error(). String matching is used because
// Genkit and the provider SDKs do not expose typed errors for transient
// failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},
	{"500", "502", "503", "504", "unavailable"},
	{"connection reset", "timeout", "temporary"},
}

func retryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// Gateway is the Genkit-backed Generator. One turn drives several model
// calls through it; all of them share the same retry policy and rate limit.
type Gateway struct {
	g         *genkit.Genkit
	modelName string
	toolRefs  []ai.ToolRef
	retry     RetryConfig
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// ModelName is the provider-qualified model, e.g.
	// "googleai/gemini-2.5-flash" or "ollama/llama3.3". Empty uses the
	// Genkit default model.
	ModelName string

	// Tools is the research tool catalog bound during Crawl calls.
	Tools []ai.ToolRef

	// Retry overrides the default retry policy.
	Retry *RetryConfig

	// RequestsPerSecond caps outbound model calls; zero disables limiting.
	RequestsPerSecond float64

	// Logger may be nil for slog.Default.
	Logger *slog.Logger
}

// NewGateway creates the generation gateway.
func NewGateway(g *genkit.Genkit, cfg GatewayConfig) *Gateway {
	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		g:         g,
		modelName: cfg.ModelName,
		toolRefs:  cfg.Tools,
		retry:     retry,
		limiter:   limiter,
		logger:    logger,
	}
}

// Grade requests a schema-validated relevance verdict. Output that cannot
// be decoded into the grade schema, or that carries a grade outside the two
// defined values, fails with ErrSchemaViolation.
func (gw *Gateway) Grade(ctx context.Context, question, contextText string) (GradeResponse, error) {
	prompt := fmt.Sprintf("question: %s\ncontext: %s", question, contextText)

	resp, err := gw.generate(ctx,
		ai.WithSystem(graderSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithOutputType(GradeResponse{}),
	)
	if err != nil {
		return GradeResponse{}, err
	}

	var verdict GradeResponse
	if err := resp.Output(&verdict); err != nil {
		return GradeResponse{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if !verdict.Grade.Valid() {
		return GradeResponse{}, fmt.Errorf("%w: grade %q", ErrSchemaViolation, verdict.Grade)
	}
	return verdict, nil
}

// Rephrase rewrites the question for retrieval.
func (gw *Gateway) Rephrase(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf("Question: %s\nRephrased Question:", question)

	resp, err := gw.generate(ctx,
		ai.WithSystem(rephraserSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Crawl invokes the model with the tool catalog bound. Tool requests are
// returned on the message rather than auto-executed; the loop dispatches
// them itself so each result lands in the conversation history.
func (gw *Gateway) Crawl(ctx context.Context, msgs []Message) (Message, error) {
	aiMsgs := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		aiMsgs = append(aiMsgs, toAIMessage(m))
	}

	resp, err := gw.generate(ctx,
		ai.WithMessages(aiMsgs...),
		ai.WithTools(gw.toolRefs...),
		ai.WithReturnToolRequests(true),
	)
	if err != nil {
		return Message{}, err
	}

	msg := Message{Role: RoleAssistant, Content: resp.Text()}
	for _, req := range resp.ToolRequests() {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			Ref:  req.Ref,
			Name: req.Name,
			Args: toolArgs(req.Input),
		})
	}
	return msg, nil
}

// Respond composes the final concise answer from the selected context.
func (gw *Gateway) Respond(ctx context.Context, question, contextText string) (string, error) {
	prompt := fmt.Sprintf("Question: %s\nContext: %s\nAnswer:", question, contextText)

	resp, err := gw.generate(ctx,
		ai.WithSystem(responderSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// generate runs one model call with exponential backoff on transient
// failures. Each attempt, retries included, waits on the rate limiter.
// Exhausted retries surface as ErrGatewayUnavailable.
func (gw *Gateway) generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	if gw.modelName != "" {
		opts = append(opts, ai.WithModelName(gw.modelName))
	}

	var lastErr error
	delay := gw.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= gw.retry.MaxRetries; attempt++ {
		if gw.limiter != nil {
			if err := gw.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, gw.g, opts...)
		if err == nil {
			gw.logger.Debug("model call succeeded", "attempts", attempt+1, "elapsed", time.Since(start))
			return resp, nil
		}
		lastErr = err

		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if attempt == gw.retry.MaxRetries {
			break
		}

		gw.logger.Debug("retrying model call", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, gw.retry.MaxInterval)
		}
	}

	return nil, fmt.Errorf("%w: %d retries over %v: %v",
		ErrGatewayUnavailable, gw.retry.MaxRetries, time.Since(start), lastErr)
}

// toAIMessage converts a history message into Genkit's message model.
func toAIMessage(m Message) *ai.Message {
	switch m.Role {
	case RoleUser:
		return ai.NewUserMessage(ai.NewTextPart(m.Content))

	case RoleTool:
		return ai.NewMessage(ai.RoleTool, nil, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   m.ToolName,
			Ref:    m.ToolRef,
			Output: m.Content,
		}))

	default:
		var parts []*ai.Part
		if m.Content != "" {
			parts = append(parts, ai.NewTextPart(m.Content))
		}
		for _, call := range m.ToolCalls {
			parts = append(parts, ai.NewToolRequestPart(&ai.ToolRequest{
				Name:  call.Name,
				Ref:   call.Ref,
				Input: call.Args,
			}))
		}
		if len(parts) == 0 {
			parts = append(parts, ai.NewTextPart(""))
		}
		return ai.NewModelMessage(parts...)
	}
}

// toolArgs normalizes a model-supplied tool input into a string-keyed map.
// Non-map inputs are wrapped through JSON so tools always see the same
// shape.
func toolArgs(input any) map[string]any {
	if input == nil {
		return nil
	}
	if args, ok := input.(map[string]any); ok {
		return args
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return map[string]any{"input": fmt.Sprint(input)}
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{"input": string(raw)}
	}
	return args
}
