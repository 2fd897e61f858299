// Package tools defines the tool abstraction the orchestrator exposes to the
// model, plus the concrete course search and outline tools.
//
// A Tool describes itself with a JSON schema and executes against validated
// arguments. The Registry owns dispatch: the model never executes anything
// directly, it only emits tool requests that the orchestrator routes through
// Registry.Execute.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Source identifies course material a tool invocation drew from. Sources are
// surfaced to the user as citations alongside the answer.
type Source struct {
	Course string `json:"course"`
	Lesson *int   `json:"lesson,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Invocation is the result of one tool execution: the text handed back to the
// model and the sources it was built from.
type Invocation struct {
	Output  string
	Sources []Source
}

// Tool is one capability the model can request. Implementations must be safe
// for concurrent use.
type Tool interface {
	// Definition returns the tool's name, description and input schema.
	Definition() Definition

	// Execute runs the tool with already schema-validated arguments.
	// Domain-level misses (no results, unknown course) are not errors: they
	// come back as textual output the model can react to. An error means the
	// tool itself failed.
	Execute(ctx context.Context, args map[string]any) (*Invocation, error)
}

// decodeArgs converts a validated argument map into a typed input struct via
// a JSON round-trip, the same shape the schema was written against.
func decodeArgs[T any](args map[string]any) (T, error) {
	var in T
	raw, err := json.Marshal(args)
	if err != nil {
		return in, fmt.Errorf("failed to encode tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	return in, nil
}
