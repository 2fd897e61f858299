// Package llm abstracts the language model endpoint behind a small Generator
// interface and provides the Genkit-backed production implementation.
//
// The orchestrator talks only to Generator; the Genkit client handles model
// selection, tool schema registration, rate limiting and retries.
package llm

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursepilot/coursepilot/internal/tools"
)

// Request is one model call. Messages carry the full conversation so far,
// including any tool request/response rounds of the current query.
type Request struct {
	// System is the system prompt. Empty means none.
	System string

	// Messages is the ordered conversation, oldest first.
	Messages []*ai.Message

	// Tools are the tool definitions offered to the model for this call.
	// Empty means the model must answer directly.
	Tools []tools.Definition
}

// Response is the model's reply to one Request.
type Response struct {
	// Message is the raw model message, needed verbatim when resubmitting
	// the conversation with tool results.
	Message *ai.Message

	// Text is the concatenated text content of the message.
	Text string

	// ToolRequests lists the tool calls the model asked for, in order.
	// Empty means the model answered directly.
	ToolRequests []*ai.ToolRequest
}

// Generator is the model endpoint as the orchestrator sees it.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
