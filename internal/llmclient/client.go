// Package llmclient defines the out-of-scope LLM provider boundary (§1):
// callers depend only on the Client interface; internal/llmclient/provider
// and internal/llmclient/deterministic are its two concrete implementations,
// selected at startup by LLM_RUNTIME_MODE.
package llmclient

import "context"

// Request is a single completion call: a system prompt, a user prompt, and
// optional JSON-schema strict mode (§6 LLM wire contract).
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64

	// JSONSchema, when non-nil, is sent as the response_format JSON schema.
	// Strict forces every properties key to be added to required,
	// recursively, per §6.
	JSONSchema map[string]any
	Strict     bool

	// RouteKey lets test doubles dispatch a scripted response by call site
	// (e.g. "llm1", "llm2") instead of strict call order, mirroring the
	// teacher's routed-vs-sequential dual dispatch for deterministic tests.
	RouteKey string
}

// Response is a single completion result.
type Response struct {
	Content string
	Model   string
}

// Client is the LLM provider port. Implementations must be safe for
// concurrent use by multiple workers.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
