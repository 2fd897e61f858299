package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/coursepilot/coursepilot/internal/log"
)

var (
	// ErrUnknownTool indicates a request for a tool name that was never
	// registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool indicates two registrations under the same name.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidArgs indicates tool arguments that failed schema validation.
	ErrInvalidArgs = errors.New("invalid tool arguments")
)

// Registry holds the registered tools and dispatches executions by name.
// Execute hands each invocation's sources back to its caller, so concurrent
// queries sharing one registry never mix citations; LastSources additionally
// exposes the most recent successful invocation's sources for inspection.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	order    []string
	tools    map[string]Tool
	resolved map[string]*jsonschema.Resolved
	sources  []Source
	logger   log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		tools:    make(map[string]Tool),
		resolved: make(map[string]*jsonschema.Resolved),
		logger:   logger,
	}
}

// Register adds a tool under its definition name. Registering the same name
// twice is an error. The input schema is resolved once here so Execute can
// validate arguments without re-resolving.
func (r *Registry) Register(t Tool) error {
	def := t.Definition()
	if def.Name == "" {
		return fmt.Errorf("tool with empty name")
	}

	resolved, err := def.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("failed to resolve schema for tool %q: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%q: %w", def.Name, ErrDuplicateTool)
	}
	r.order = append(r.order, def.Name)
	r.tools[def.Name] = t
	r.resolved[def.Name] = resolved

	r.logger.Debug("tool registered", "tool", def.Name)
	return nil
}

// Definitions returns the definitions of all registered tools in registration
// order, ready to serialize into a model request.
func (r *Registry) Definitions() []Definition {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute validates args against the tool's schema and runs it, returning
// the tool's output together with the sources of this invocation. On success
// the sources also replace the registry's tracked sources; a failed execution
// leaves the previous sources untouched.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, []Source, error) {
	r.mu.Lock()
	t, ok := r.tools[name]
	resolved := r.resolved[name]
	r.mu.Unlock()

	if !ok {
		return "", nil, fmt.Errorf("%q: %w", name, ErrUnknownTool)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := resolved.Validate(args); err != nil {
		return "", nil, fmt.Errorf("tool %q: %w: %v", name, ErrInvalidArgs, err)
	}

	inv, err := t.Execute(ctx, args)
	if err != nil {
		return "", nil, fmt.Errorf("tool %q: %w", name, err)
	}

	r.mu.Lock()
	r.sources = inv.Sources
	r.mu.Unlock()

	r.logger.Debug("tool executed",
		"tool", name,
		"output_len", len(inv.Output),
		"sources", len(inv.Sources))
	return inv.Output, inv.Sources, nil
}

// LastSources returns a copy of the sources recorded by the most recent
// successful execution.
func (r *Registry) LastSources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sources) == 0 {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ResetSources clears the tracked sources.
func (r *Registry) ResetSources() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = nil
}
