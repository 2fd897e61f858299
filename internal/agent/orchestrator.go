// Package agent contains the query orchestrator: the state machine that turns
// a user question into a grounded answer by looping the model through tool
// rounds.
//
// The model never executes anything. It emits tool requests; the orchestrator
// routes them through the tool registry, feeds results back, and bounds the
// loop so a misbehaving model cannot spin forever. The round after the last
// tool round is made without tools, forcing synthesis.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursepilot/coursepilot/internal/llm"
	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/session"
	"github.com/coursepilot/coursepilot/internal/tools"
)

// fallbackAnswer is returned when the model produces an empty final response.
const fallbackAnswer = "I couldn't generate a response. Please try rephrasing your question."

// queryPrefix frames the user's raw input for the model.
const queryPrefix = "Answer this question about course materials: "

// systemPrompt is the static instruction block. Conversation history is
// appended per query; the prompt itself never changes between calls.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content.

Available tools:
- search_course_content: searches inside course materials. Use for questions about specific course content or detailed educational materials.
- get_course_outline: returns a course's title, link and complete lesson list. Use for questions about course structure or overviews.

Tool usage:
- Use tools only when the question concerns specific courses or their content
- You may call tools in sequence across rounds, for example resolving a course outline first and searching a specific lesson second
- If a tool returns no results, say so clearly; do not invent course content
- Answer general knowledge questions directly from your own knowledge, without tools

Responses must be brief, concise and focused on the question. Do not mention the tools or your search process in the answer.`

var (
	// ErrEmptyQuery indicates a blank user query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrEmptySessionID indicates a missing session identifier. Sessions are
	// minted by the boundary (HTTP handler or CLI), never here.
	ErrEmptySessionID = errors.New("session id must not be empty")
)

// Answer is the final result for one user query.
type Answer struct {
	Text string

	// Sources cite the course material consulted by tool calls while
	// producing the answer, in execution order.
	Sources []tools.Source
}

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Generator llm.Generator
	Registry  *tools.Registry
	Sessions  *session.Store
	Logger    log.Logger

	// MaxToolRounds bounds tool-calling rounds per query. Values below 1
	// fall back to 2.
	MaxToolRounds int
}

func (cfg Config) validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	return nil
}

// Orchestrator coordinates one query end to end: prompt assembly, the bounded
// tool loop, source collection and history persistence.
//
// Stateless between queries apart from its injected dependencies; safe for
// concurrent use across sessions.
type Orchestrator struct {
	gen       llm.Generator
	registry  *tools.Registry
	sessions  *session.Store
	maxRounds int
	logger    log.Logger
}

// New creates an Orchestrator from its dependencies.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	maxRounds := cfg.MaxToolRounds
	if maxRounds < 1 {
		maxRounds = 2
	}
	return &Orchestrator{
		gen:       cfg.Generator,
		registry:  cfg.Registry,
		sessions:  cfg.Sessions,
		maxRounds: maxRounds,
		logger:    logger,
	}, nil
}

// Answer runs one query through the tool loop and returns the final text with
// its sources. On success the exchange is appended to the session history; a
// failed query (endpoint error, cancellation) leaves history untouched so a
// retry sees the same context.
func (o *Orchestrator) Answer(ctx context.Context, sessionID, query string) (*Answer, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySessionID
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	system := o.systemWithHistory(sessionID)
	msgs := []*ai.Message{
		ai.NewUserTextMessage(queryPrefix + query),
	}
	defs := o.registry.Definitions()

	var sources []tools.Source
	var finalText string

	for round := 0; ; round++ {
		withTools := round < o.maxRounds
		req := &llm.Request{System: system, Messages: msgs}
		if withTools {
			req.Tools = defs
		}

		resp, err := o.gen.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		if len(resp.ToolRequests) == 0 || !withTools {
			finalText = strings.TrimSpace(resp.Text)
			break
		}

		o.logger.Debug("tool round",
			"session", sessionID,
			"round", round+1,
			"requests", len(resp.ToolRequests))

		// Keep the model's own message in the transcript, then answer every
		// tool request so the next round sees matched pairs.
		msgs = append(msgs, resp.Message)
		parts := make([]*ai.Part, 0, len(resp.ToolRequests))
		for _, tr := range resp.ToolRequests {
			output, srcs, executed := o.executeTool(ctx, tr)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if executed {
				sources = append(sources, srcs...)
			}
			parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   tr.Name,
				Ref:    tr.Ref,
				Output: output,
			}))
		}
		msgs = append(msgs, ai.NewMessage(ai.RoleTool, nil, parts...))
	}

	if finalText == "" {
		finalText = fallbackAnswer
	}

	o.sessions.AddExchange(sessionID, query, finalText)

	return &Answer{Text: finalText, Sources: sources}, nil
}

// executeTool dispatches one tool request through the registry. Failures are
// downgraded to textual results so the model can acknowledge them; the bool
// reports whether the tool actually ran.
func (o *Orchestrator) executeTool(ctx context.Context, tr *ai.ToolRequest) (string, []tools.Source, bool) {
	args, _ := tr.Input.(map[string]any)

	output, srcs, err := o.registry.Execute(ctx, tr.Name, args)
	if err != nil {
		o.logger.Warn("tool execution failed",
			"tool", tr.Name,
			"error", err)
		return fmt.Sprintf("Tool execution failed: %v", err), nil, false
	}
	return output, srcs, true
}

// systemWithHistory appends the session's prior exchanges to the static
// system prompt. An empty history returns the prompt unchanged.
func (o *Orchestrator) systemWithHistory(sessionID string) string {
	history := o.sessions.History(sessionID)
	if len(history) == 0 {
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nPrevious conversation:\n")
	for _, ex := range history {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.Query, ex.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
