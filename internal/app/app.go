// Package app provides application initialization and dependency injection.
//
// App is the container that wires all components: Genkit and the embedder,
// the vector store, the tool registry, the model client, sessions and the
// orchestrator. Construction is explicit and ordered; every component
// receives its dependencies through its constructor.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/coursepilot/coursepilot/internal/agent"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/course"
	"github.com/coursepilot/coursepilot/internal/ingest"
	"github.com/coursepilot/coursepilot/internal/llm"
	"github.com/coursepilot/coursepilot/internal/log"
	"github.com/coursepilot/coursepilot/internal/session"
	"github.com/coursepilot/coursepilot/internal/tools"
	"github.com/coursepilot/coursepilot/internal/vectorstore"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Store        *vectorstore.Store
	Registry     *tools.Registry
	Generator    llm.Generator
	Sessions     *session.Store
	Orchestrator *agent.Orchestrator
	Ingester     *ingest.Ingester
}

// New builds the full application from configuration. The context covers
// initialization only; request lifecycles carry their own contexts.
func New(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	}

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not available for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	store, err := vectorstore.Open(cfg.StorePath, vectorstore.NewEmbeddingFunc(embedder),
		logger.With("component", "vectorstore"))
	if err != nil {
		return nil, err
	}

	chunker := course.NewChunker(course.ChunkerConfig{
		Size:     cfg.ChunkSize,
		Overlap:  cfg.ChunkOverlap,
		MinChunk: cfg.MinChunk,
	})
	ingester := ingest.New(store, chunker, logger.With("component", "ingest"))

	registry := tools.NewRegistry(logger.With("component", "tools"))
	if err := registry.Register(tools.NewSearchTool(store, cfg.SearchTopK, logger.With("tool", tools.SearchToolName))); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewOutlineTool(store, logger.With("tool", tools.OutlineToolName))); err != nil {
		return nil, err
	}

	generator, err := llm.NewClient(llm.ClientConfig{
		Genkit:    g,
		ModelName: cfg.ModelName,
		Logger:    logger.With("component", "llm"),
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.MaxHistory)

	orchestrator, err := agent.New(agent.Config{
		Generator:     generator,
		Registry:      registry,
		Sessions:      sessions,
		Logger:        logger.With("component", "agent"),
		MaxToolRounds: cfg.MaxToolRounds,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"store_path", cfg.StorePath,
		"courses", store.CourseCount())

	return &App{
		Config:       cfg,
		Logger:       logger,
		Genkit:       g,
		Embedder:     embedder,
		Store:        store,
		Registry:     registry,
		Generator:    generator,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Ingester:     ingester,
	}, nil
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case "", "googleai":
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("failed to initialize genkit with googleai provider")
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// Close releases application resources. The vector store persists on every
// write, so shutdown only needs to log.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")
	return nil
}
