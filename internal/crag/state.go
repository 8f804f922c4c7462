package crag

import "strings"

// Role tags a conversation message with its author.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model-issued request to invoke a named tool. Ref correlates
// the eventual tool result back to this request.
type ToolCall struct {
	Ref  string         `json:"ref"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is one entry in the conversation history. Assistant messages may
// carry pending tool calls; tool messages carry the result of one call,
// tagged with the originating ref.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolRef   string     `json:"tool_ref,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

// HasToolCalls reports whether the message carries pending tool requests.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Grade is the binary relevance verdict for retrieved context.
type Grade string

// The only two valid grades. Anything else from the model is a schema
// violation, never a third routing case.
const (
	GradeRelevant   Grade = "relevant"
	GradeIrrelevant Grade = "irrelevant"
)

// Valid reports whether g is one of the defined grade values.
func (g Grade) Valid() bool {
	return g == GradeRelevant || g == GradeIrrelevant
}

// GradeResponse is the structured output of the grading step.
type GradeResponse struct {
	Grade       Grade  `json:"grade" jsonschema:"enum=relevant,enum=irrelevant" jsonschema_description:"Whether the retrieved context is relevant to the question"`
	Description string `json:"description,omitempty" jsonschema_description:"Reasoning for the grade, typically given when the context is irrelevant"`
}

// Passage is one retrieved context passage with its opaque metadata.
type Passage struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// State is the full conversation state flowing through the answer loop and
// persisted between turns.
//
// Messages is append-only; steps add messages, never mutate or remove them.
// Verdict is present iff grading has run this turn. CrawlerResult is nil
// until the research loop runs this turn; a non-nil empty string means the
// model replied with a pure tool request, and the distinction drives the
// crawl step's input selection.
type State struct {
	Messages      []Message      `json:"messages"`
	Question      string         `json:"question,omitempty"`
	Answer        string         `json:"answer,omitempty"`
	Verdict       *GradeResponse `json:"verdict,omitempty"`
	CrawlerResult *string        `json:"crawler_result,omitempty"`
	Context       []Passage      `json:"retrieved_context,omitempty"`
	OwnerID       string         `json:"owner_id"`
}

// Append adds messages to the history.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// LastMessage returns the most recent message.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// lastUserMessage scans the history from the end for the most recent
// user-authored message.
func (s *State) lastUserMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// resetTurn clears the per-turn fields while keeping the conversation
// history and owner identity. Called at the start of every turn so stale
// verdicts or crawler output from a prior turn cannot leak into routing.
func (s *State) resetTurn() {
	s.Question = ""
	s.Answer = ""
	s.Verdict = nil
	s.CrawlerResult = nil
	s.Context = nil
}

// ContextText joins the retrieved passages in rank order with paragraph
// breaks, the form both grading and answering consume.
func (s *State) ContextText() string {
	parts := make([]string, 0, len(s.Context))
	for _, p := range s.Context {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Clone returns a deep copy of the state. Stores use it to keep callers
// from sharing slices with cached state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Question: s.Question,
		Answer:   s.Answer,
		OwnerID:  s.OwnerID,
	}
	if s.Verdict != nil {
		v := *s.Verdict
		out.Verdict = &v
	}
	if s.CrawlerResult != nil {
		c := *s.CrawlerResult
		out.CrawlerResult = &c
	}
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = cloneMessage(m)
		}
	}
	if s.Context != nil {
		out.Context = make([]Passage, len(s.Context))
		for i, p := range s.Context {
			out.Context[i] = clonePassage(p)
		}
	}
	return out
}

func cloneMessage(m Message) Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			out.ToolCalls[i] = ToolCall{Ref: tc.Ref, Name: tc.Name, Args: cloneArgs(tc.Args)}
		}
	}
	return out
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

func clonePassage(p Passage) Passage {
	out := p
	if p.Metadata != nil {
		out.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
