package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/time/rate"

	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/tools"
)

// RetryConfig configures the retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for model API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// ClientConfig contains the required parameters for the Genkit client.
type ClientConfig struct {
	Genkit    *genkit.Genkit
	ModelName string
	Logger    log.Logger

	// RateLimiter proactively spaces out model calls. Nil uses a default
	// suitable for free-tier quotas.
	RateLimiter *rate.Limiter

	// Retry controls backoff on transient failures. Zero value uses
	// DefaultRetryConfig.
	Retry RetryConfig
}

// Client is the Genkit-backed Generator. Tool definitions are registered with
// Genkit on first use so their schemas serialize into requests; execution
// stays with the caller because every tool-bearing request asks the model to
// return tool requests instead of running them.
//
// Client is safe for concurrent use.
type Client struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	retry     RetryConfig
	logger    log.Logger
}

// NewClient creates a Genkit-backed Generator.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New("model name is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(2), 4)
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialInterval == 0 {
		retry = DefaultRetryConfig()
	}

	return &Client{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		limiter:   limiter,
		retry:     retry,
		logger:    logger,
	}, nil
}

// Generate performs one model call. Failures come back as *EndpointError
// with the failure kind attached.
func (c *Client) Generate(ctx context.Context, req *Request) (*Response, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(req.Messages...),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.Tools) > 0 {
		refs := c.toolRefs(req.Tools)
		opts = append(opts,
			ai.WithTools(refs...),
			ai.WithReturnToolRequests(true),
		)
	}

	resp, err := c.generateWithRetry(ctx, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &EndpointError{Kind: Classify(err), Err: err}
	}

	out := &Response{
		Message: resp.Message,
		Text:    resp.Text(),
	}
	if resp.Message != nil {
		for _, part := range resp.Message.Content {
			if part.IsToolRequest() {
				out.ToolRequests = append(out.ToolRequests, part.ToolRequest)
			}
		}
	}
	return out, nil
}

// toolRefs registers the given definitions with Genkit (once per name) and
// returns refs usable in a generate call. The registered handler never runs:
// requests carry WithReturnToolRequests so execution stays with the
// orchestrator.
func (c *Client) toolRefs(defs []tools.Definition) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(defs))
	for _, def := range defs {
		if tool := genkit.LookupTool(c.g, def.Name); tool != nil {
			refs = append(refs, tool)
			continue
		}
		name := def.Name
		tool := genkit.DefineToolWithInputSchema(c.g, def.Name, def.Description, schemaToMap(def.InputSchema),
			func(tctx *ai.ToolContext, input any) (string, error) {
				return "", fmt.Errorf("tool %q must be dispatched by the orchestrator", name)
			})
		refs = append(refs, tool)
	}
	return refs
}

// schemaToMap converts a JSON schema into the map form Genkit's
// DefineToolWithInputSchema expects.
func schemaToMap(s *jsonschema.Schema) map[string]any {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// generateWithRetry executes the model call with rate limiting on each
// attempt and exponential backoff on transient failures.
func (c *Client) generateWithRetry(ctx context.Context, opts []ai.GenerateOption) (*ai.ModelResponse, error) {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := genkit.Generate(ctx, c.g, opts...)
		if err == nil {
			c.logger.Debug("model call succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start))
			return resp, nil
		}
		lastErr = err

		if !Classify(err).Retryable() {
			return nil, err
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying model call",
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return nil, fmt.Errorf("model call failed after %d retries (elapsed: %v): %w",
		c.retry.MaxRetries, time.Since(start), lastErr)
}
