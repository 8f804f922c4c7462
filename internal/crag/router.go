package crag

import "fmt"

// Node names the steps of the answer loop.
type Node string

// The loop's nodes. nodeEnd is the terminal marker, never executed.
const (
	NodeRetrieve   Node = "retrieve"
	NodeGrade      Node = "grade"
	NodeRephrase   Node = "rephrase"
	NodeCrawl      Node = "crawl"
	NodeInvokeTool Node = "invoke_tool"
	NodeRespond    Node = "respond"
	nodeEnd        Node = "end"
)

// GradeRoute decides the step after grading. An absent or relevant verdict
// accepts the retrieved context and goes straight to the responder; an
// irrelevant verdict triggers the rephrase-and-research path. It is a pure
// function of the verdict; nothing else affects it.
func GradeRoute(verdict *GradeResponse) Node {
	if verdict == nil || verdict.Grade == GradeRelevant {
		return NodeRespond
	}
	return NodeRephrase
}

// ToolRoute decides the step after a crawl: invoke_tool when the last
// message carries pending tool calls, respond otherwise. It accepts the
// state as a bare message slice, a State value, a *State, or any value
// exposing MessageHistory(), and yields identical routing for equivalent
// last messages in every shape. A shape
// with no messages at all fails with ErrMalformedState.
func ToolRoute(state any) (Node, error) {
	last, err := extractLastMessage(state)
	if err != nil {
		return "", err
	}
	if last.HasToolCalls() {
		return NodeInvokeTool, nil
	}
	return NodeRespond, nil
}

// extractLastMessage normalizes the accepted state shapes to their last
// message. All routing shape-polymorphism is isolated here.
func extractLastMessage(state any) (Message, error) {
	switch v := state.(type) {
	case interface{ MessageHistory() []Message }:
		return extractLastMessage(v.MessageHistory())
	case []Message:
		if len(v) == 0 {
			return Message{}, fmt.Errorf("%w: empty message list", ErrMalformedState)
		}
		return v[len(v)-1], nil
	case State:
		if last, ok := v.LastMessage(); ok {
			return last, nil
		}
		return Message{}, fmt.Errorf("%w: state has no messages", ErrMalformedState)
	case *State:
		if v == nil {
			return Message{}, fmt.Errorf("%w: nil state", ErrMalformedState)
		}
		if last, ok := v.LastMessage(); ok {
			return last, nil
		}
		return Message{}, fmt.Errorf("%w: state has no messages", ErrMalformedState)
	default:
		return Message{}, fmt.Errorf("%w: unsupported state shape %T", ErrMalformedState, state)
	}
}
