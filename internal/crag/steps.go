package crag

import (
	"context"
	"encoding/json"
	"fmt"
)

// noContextFallback is answered from when neither retrieval nor research
// produced any usable context.
const noContextFallback = "No Context Found"

// retrieve finds the most recent user message, runs an owner-scoped
// similarity search for it, and records both the question and the passages.
// The concatenated passage text is appended to history for audit and
// continuity.
func (o *Orchestrator) retrieve(ctx context.Context, st *State) error {
	question, ok := st.lastUserMessage()
	if !ok {
		return ErrMissingInput
	}

	passages, err := o.searcher.Search(ctx, st.OwnerID, question.Content)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}

	st.Question = question.Content
	st.Context = passages
	st.Append(Message{Role: RoleAssistant, Content: st.ContextText()})

	o.logger.Debug("retrieved context", "owner_id", st.OwnerID, "passages", len(passages))
	return nil
}

// grade asks the model for a structured relevance verdict on the retrieved
// context. Any grade outside the two defined values is a schema violation,
// failed loudly rather than coerced into a routing decision.
func (o *Orchestrator) grade(ctx context.Context, st *State) error {
	verdict, err := o.gen.Grade(ctx, st.Question, st.ContextText())
	if err != nil {
		return fmt.Errorf("grading context: %w", err)
	}
	if !verdict.Grade.Valid() {
		return fmt.Errorf("%w: grade %q", ErrSchemaViolation, verdict.Grade)
	}

	st.Verdict = &verdict

	serialized, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("serializing verdict: %w", err)
	}
	st.Append(Message{Role: RoleAssistant, Content: string(serialized)})

	o.logger.Debug("graded context", "grade", verdict.Grade, "reason", verdict.Description)
	return nil
}

// rephrase replaces the question with a clearer, retrieval-optimized
// restatement before the research loop runs.
func (o *Orchestrator) rephrase(ctx context.Context, st *State) error {
	rephrased, err := o.gen.Rephrase(ctx, st.Question)
	if err != nil {
		return fmt.Errorf("rephrasing question: %w", err)
	}

	st.Question = rephrased
	st.Append(Message{Role: RoleAssistant, Content: rephrased})

	o.logger.Debug("rephrased question", "question", rephrased)
	return nil
}

// crawl invokes the tool-bound model. On first entry this turn the input is
// the bare rephrased question; on re-entry after tool results it is the full
// accumulated history, so the model can correlate results to its requests.
// The raw model message, tool-call metadata included, is appended because
// routing and tool invocation both inspect it.
func (o *Orchestrator) crawl(ctx context.Context, st *State) error {
	var input []Message
	if st.CrawlerResult == nil {
		input = []Message{{Role: RoleUser, Content: st.Question}}
	} else {
		input = st.Messages
	}

	msg, err := o.gen.Crawl(ctx, input)
	if err != nil {
		return fmt.Errorf("crawling: %w", err)
	}

	st.CrawlerResult = &msg.Content
	st.Append(msg)

	o.logger.Debug("crawl step", "tool_calls", len(msg.ToolCalls), "text_length", len(msg.Content))
	return nil
}

// invokeTool executes every pending tool call on the last message. A failed
// tool degrades to an error-description string as that tool's result, so
// the loop stays alive and the model can retry, switch tools, or answer
// without it. Only history is mutated.
func (o *Orchestrator) invokeTool(ctx context.Context, st *State) error {
	last, ok := st.LastMessage()
	if !ok || !last.HasToolCalls() {
		return fmt.Errorf("%w: invoke_tool reached without pending tool calls", ErrMalformedState)
	}

	for _, call := range last.ToolCalls {
		result, err := o.tools.Invoke(ctx, call.Name, call.Args)
		if err != nil {
			o.logger.Warn("tool call failed", "tool", call.Name, "error", err)
			result = fmt.Sprintf("Error: tool %q failed: %v", call.Name, fmt.Errorf("%w: %v", ErrToolExecution, err))
		}
		st.Append(Message{
			Role:     RoleTool,
			Content:  result,
			ToolRef:  call.Ref,
			ToolName: call.Name,
		})
	}
	return nil
}

// respond composes the final answer from exactly one context source,
// selected solely by the verdict: absent or relevant means the retrieved
// passages, irrelevant means the crawler output (or the fallback marker if
// the research loop never produced text).
func (o *Orchestrator) respond(ctx context.Context, st *State) error {
	finalContext := st.ContextText()
	if st.Verdict != nil && st.Verdict.Grade != GradeRelevant {
		if st.CrawlerResult != nil {
			finalContext = *st.CrawlerResult
		} else {
			finalContext = noContextFallback
		}
	}

	answer, err := o.gen.Respond(ctx, st.Question, finalContext)
	if err != nil {
		return fmt.Errorf("composing answer: %w", err)
	}

	st.Answer = answer
	st.Append(Message{Role: RoleAssistant, Content: answer})

	o.logger.Debug("composed answer", "answer_length", len(answer))
	return nil
}
