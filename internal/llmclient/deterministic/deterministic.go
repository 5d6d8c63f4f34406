// Package deterministic implements llmclient.Client with scripted,
// canned responses for tests and the LLM_RUNTIME_MODE=deterministic
// operating mode, directly grounded on the teacher's
// test/e2e/mock_llm.go ScriptedLLMClient: a dual-dispatch mock with routed
// entries consumed per RouteKey and a sequential fallback queue.
package deterministic

import (
	"context"
	"fmt"
	"sync"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
)

// Entry is a single scripted response.
type Entry struct {
	Content string
	Err     error
}

// Client is a scripted llmclient.Client.
type Client struct {
	mu         sync.Mutex
	sequential []Entry
	seqIndex   int
	routes     map[string][]Entry
	routeIndex map[string]int
	calls      []llmclient.Request
}

// New creates an empty scripted Client.
func New() *Client {
	return &Client{
		routes:     make(map[string][]Entry),
		routeIndex: make(map[string]int),
	}
}

// AddSequential appends an entry consumed in call order for requests with no
// matching routed entry.
func (c *Client) AddSequential(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequential = append(c.sequential, entry)
}

// AddRouted appends an entry consumed in order for requests whose RouteKey
// equals key.
func (c *Client) AddRouted(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[key] = append(c.routes[key], entry)
}

// Complete implements llmclient.Client.
func (c *Client) Complete(_ context.Context, req llmclient.Request) (*llmclient.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	entry, err := c.nextEntry(req.RouteKey)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if entry.Err != nil {
		return nil, entry.Err
	}
	return &llmclient.Response{Content: entry.Content, Model: req.Model}, nil
}

// CallCount returns the number of Complete calls made so far.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Calls returns a copy of every request made so far, in order.
func (c *Client) Calls() []llmclient.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llmclient.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// nextEntry must be called with c.mu held.
func (c *Client) nextEntry(routeKey string) (*Entry, error) {
	if routeKey != "" {
		if entries, ok := c.routes[routeKey]; ok {
			idx := c.routeIndex[routeKey]
			if idx < len(entries) {
				c.routeIndex[routeKey] = idx + 1
				return &entries[idx], nil
			}
		}
	}

	if c.seqIndex < len(c.sequential) {
		entry := &c.sequential[c.seqIndex]
		c.seqIndex++
		return entry, nil
	}

	return nil, fmt.Errorf("deterministic: no more scripted entries (route=%q, sequential=%d/%d)",
		routeKey, c.seqIndex, len(c.sequential))
}
