package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursepilot/coursepilot/internal/llm"
)

// ScriptedGenerator is an llm.Generator stub that replays a fixed sequence of
// responses and records every request it receives. The orchestrator's tool
// loop can be exercised end to end without a model endpoint.
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []*llm.Response
	errs      []error
	requests  []*llm.Request
}

// NewScriptedGenerator creates an empty script. Append steps with Text,
// ToolCall and Fail in the order the orchestrator should receive them.
func NewScriptedGenerator() *ScriptedGenerator {
	return &ScriptedGenerator{}
}

// Text appends a plain text response step.
func (g *ScriptedGenerator) Text(text string) *ScriptedGenerator {
	g.responses = append(g.responses, &llm.Response{
		Message: ai.NewModelTextMessage(text),
		Text:    text,
	})
	g.errs = append(g.errs, nil)
	return g
}

// ToolCall appends a step where the model requests the named tools with the
// given inputs, pairwise.
func (g *ScriptedGenerator) ToolCall(calls ...ToolCall) *ScriptedGenerator {
	parts := make([]*ai.Part, 0, len(calls))
	reqs := make([]*ai.ToolRequest, 0, len(calls))
	for _, c := range calls {
		tr := &ai.ToolRequest{Name: c.Name, Input: c.Input}
		parts = append(parts, ai.NewToolRequestPart(tr))
		reqs = append(reqs, tr)
	}
	g.responses = append(g.responses, &llm.Response{
		Message:      ai.NewMessage(ai.RoleModel, nil, parts...),
		ToolRequests: reqs,
	})
	g.errs = append(g.errs, nil)
	return g
}

// Fail appends a step that returns err instead of a response.
func (g *ScriptedGenerator) Fail(err error) *ScriptedGenerator {
	g.responses = append(g.responses, nil)
	g.errs = append(g.errs, err)
	return g
}

// ToolCall names one requested tool invocation.
type ToolCall struct {
	Name  string
	Input map[string]any
}

// Generate replays the next scripted step.
func (g *ScriptedGenerator) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	idx := len(g.requests) - 1
	if idx >= len(g.responses) {
		return nil, fmt.Errorf("scripted generator exhausted after %d calls", len(g.responses))
	}
	if err := g.errs[idx]; err != nil {
		return nil, err
	}
	return g.responses[idx], nil
}

// Requests returns the requests received so far, in order.
func (g *ScriptedGenerator) Requests() []*llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*llm.Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// Calls returns how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
