package crag

import "errors"

// Error taxonomy for the answer loop. Callers distinguish failure classes
// with errors.Is; the wrapped error carries the operational detail.
var (
	// ErrMissingInput indicates the conversation history holds no
	// user-authored message to answer. Not retried.
	ErrMissingInput = errors.New("crag: no user message found in conversation")

	// ErrSchemaViolation indicates the model returned structured output
	// that does not conform to the requested schema. Indicates a prompt or
	// gateway contract break; not retried.
	ErrSchemaViolation = errors.New("crag: model output violates grading schema")

	// ErrGatewayUnavailable indicates a gateway call kept failing
	// transiently after bounded retries.
	ErrGatewayUnavailable = errors.New("crag: gateway unavailable")

	// ErrToolExecution indicates a tool call failed. It is absorbed inside
	// the loop by substituting an error string as the tool result, so it
	// only surfaces in logs.
	ErrToolExecution = errors.New("crag: tool execution failed")

	// ErrStepBudgetExceeded indicates the research loop ran past its step
	// budget without producing an answer.
	ErrStepBudgetExceeded = errors.New("crag: step budget exceeded")

	// ErrMalformedState indicates a routing predicate was handed a state
	// shape with no messages. Caller contract violation, fatal.
	ErrMalformedState = errors.New("crag: no messages found in state")

	// ErrStateNotFound is returned by StateStore.Load when no state exists
	// under the requested key.
	ErrStateNotFound = errors.New("crag: conversation state not found")
)
