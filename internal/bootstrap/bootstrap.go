package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corpusjuris/interrogator/internal/config"
	"github.com/corpusjuris/interrogator/internal/core/interrogation"
	"github.com/corpusjuris/interrogator/internal/core/ports"
	"github.com/corpusjuris/interrogator/internal/core/retrieval"
	"github.com/corpusjuris/interrogator/internal/core/usecase"
	"github.com/corpusjuris/interrogator/internal/infrastructure/llm/ollama"
	"github.com/corpusjuris/interrogator/internal/infrastructure/queue/nats"
	"github.com/corpusjuris/interrogator/internal/infrastructure/repository/postgres"
	"github.com/corpusjuris/interrogator/internal/infrastructure/reranker"
	"github.com/corpusjuris/interrogator/internal/infrastructure/resilience"
	"github.com/corpusjuris/interrogator/internal/infrastructure/vector/qdrant"
	"github.com/corpusjuris/interrogator/internal/observability/logging"
	"github.com/corpusjuris/interrogator/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Queue ports.JobQueue
	Store ports.SessionStore

	Retrieval     ports.RetrievalService
	ResearchUC    *usecase.ResearchUseCase
	InterrogateUC *usecase.InterrogateUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewSessionRepository(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, cfg.OllamaSimilarityModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	generator := ollama.NewGenerator(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)
	synthesizer := ollama.NewSynthesizer(ollamaClient)
	similarity := ollama.NewSimilarityScorer(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.Options{
		ResilienceExecutor: executor,
	})

	var rr *retrieval.Reranker
	if cfg.Retrieval.UseReranker {
		if cfg.RerankerURL == "" {
			return nil, fmt.Errorf("reranker enabled but RERANKER_URL is empty")
		}
		scorer, err := reranker.New(cfg.RerankerURL, cfg.Retrieval.RerankerType, reranker.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init reranker: %w", err)
		}
		rr = retrieval.NewReranker(scorer, cfg.Retrieval.RerankerTopK, cfg.Retrieval.RerankerSimilarityThreshold)
	}

	serverMetrics := metrics.NewHTTPServerMetrics(service)
	engine := retrieval.NewEngine(
		vectorDB,
		retrieval.NewLexicalRanker(cfg.Retrieval.BM25Sigmoid),
		retrieval.NewSemanticRanker(embedder, vectorDB),
		rr,
		cfg.Retrieval,
		time.Duration(cfg.SnapshotTTLSeconds)*time.Second,
		logger,
		func(ranker string) { serverMetrics.RecordRankerDegraded(service, ranker) },
	)

	researchUC := usecase.NewResearchUseCase(engine, synthesizer)
	termination := interrogation.NewTerminationChecker(similarity, cfg.TerminationSimilarity, logger)
	machine := interrogation.NewMachine(generator, researchUC, termination, logger)
	interrogateUC := usecase.NewInterrogateUseCase(machine, store, queue, cfg.DefaultTurnBudget)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: serverMetrics,

		Queue: queue,
		Store: store,

		Retrieval:     engine,
		ResearchUC:    researchUC,
		InterrogateUC: interrogateUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
