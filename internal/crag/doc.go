// Package crag implements the corrective retrieval-augmented answer loop.
//
// A turn flows through a fixed set of steps: retrieve owner-scoped passages,
// grade their relevance with a structured model call, then either answer from
// the retrieved context or rephrase the question and research it with web
// tools before answering. The loop between the tool-calling model and tool
// execution is bounded by a step budget.
//
// State for each conversation is a single explicit record ([State]) that
// every step reads and mutates in place; it is persisted through a
// [StateStore] keyed by "<owner>#<thread>" so conversations resume across
// turns. External collaborators (retrieval, generation, tool execution) are
// consumed through narrow interfaces defined in this package.
package crag
