package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/ai"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/auth"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/chromem"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/postgres"
	redisadapter "github.com/unam-acatlan/macgpt-core/internal/adapters/driven/redis"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/records"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driven/store"
	"github.com/unam-acatlan/macgpt-core/internal/adapters/driving/http"
	"github.com/unam-acatlan/macgpt-core/internal/config"
	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
	"github.com/unam-acatlan/macgpt-core/internal/core/ports/driven"
	"github.com/unam-acatlan/macgpt-core/internal/core/services"
	"github.com/unam-acatlan/macgpt-core/internal/runtime"
	"github.com/unam-acatlan/macgpt-core/internal/worker"
)

var version = "dev"

func main() {
	configPath := flag.String("config", getEnv("MACGPT_CONFIG", "config.yaml"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Version == "dev" {
		cfg.Server.Version = version
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("macgpt-core starting", "version", cfg.Server.Version)

	ctx := context.Background()

	// ===== Redis (optional) =====
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	// ===== Generation store (file or PostgreSQL) =====
	var (
		genStore driven.GenerationStore
		db       *postgres.DB
	)
	switch cfg.Store.Backend {
	case "postgres":
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.Postgres.URL))
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.InitSchema(ctx); err != nil {
			logger.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		genStore = postgres.NewGenerationStore(db)
		logger.Info("using postgres generation store")
	default:
		genStore, err = store.NewFileStore(cfg.Store.Dir)
		if err != nil {
			logger.Error("failed to open file store", "error", err)
			os.Exit(1)
		}
		logger.Info("using file generation store", "dir", cfg.Store.Dir)
	}
	defer genStore.Close()

	// ===== Rebuild lock and state (Redis if available) =====
	var (
		redisLock   *redisadapter.Lock
		rebuildLock driven.RebuildLock
		stateStore  driven.RebuildStateStore
	)
	if redisClient != nil {
		redisLock = redisadapter.NewLock(redisClient)
		rebuildLock = redisLock
		stateStore = redisadapter.NewStateStore(redisClient)
	}

	// ===== AI services =====
	aiFactory := ai.NewFactory()
	runtimeServices := runtime.NewServices()
	defer runtimeServices.Close()

	embedder, err := aiFactory.CreateEmbeddingService(&cfg.AI.Embedding)
	if err != nil {
		logger.Error("failed to create embedding service", "error", err)
		os.Exit(1)
	}
	runtimeServices.SetEmbeddingService(embedder)

	generator, err := aiFactory.CreateGenerationService(&cfg.AI.Generation)
	if err != nil {
		logger.Error("failed to create generation service", "error", err)
		os.Exit(1)
	}
	runtimeServices.SetGenerationService(generator)

	logger.Info("ai services configured",
		"embedding", cfg.AI.Embedding.Provider,
		"generation", cfg.AI.Generation.Provider,
	)

	// ===== Vector index =====
	var index *chromem.Index
	if cfg.Store.IndexDir != "" {
		index, err = chromem.NewPersistentIndex(cfg.Store.IndexDir)
	} else {
		index, err = chromem.NewIndex()
	}
	if err != nil {
		logger.Error("failed to create vector index", "error", err)
		os.Exit(1)
	}
	defer index.Close()

	// ===== Warm start from the persisted generation =====
	var activeGen *domain.Generation
	if gen, err := genStore.Load(ctx); err == nil {
		activeGen = gen
		if err := index.Rebuild(ctx, gen); err != nil {
			logger.Error("failed to index persisted generation", "error", err)
			os.Exit(1)
		}
		logger.Info("warm start from persisted generation",
			"generation_id", gen.ID,
			"chunks", gen.Len(),
		)
	} else if errors.Is(err, domain.ErrNoGeneration) {
		logger.Info("no persisted generation, serving fixed answers until first rebuild")
	} else {
		logger.Error("failed to load persisted generation", "error", err)
		os.Exit(1)
	}
	active := services.NewActiveIndex(activeGen)

	// ===== Core services =====
	normalizer := services.NewNormalizer(services.DefaultNormalizerConfig(), logger)
	retriever := services.NewRetriever(active, index)
	assembler := services.NewPromptAssembler(services.DefaultContextBudget)

	coordinator := services.NewCoordinator(services.CoordinatorConfig{
		Source:         records.NewFileSource(cfg.Records.Dir),
		Normalizer:     normalizer,
		Store:          genStore,
		Index:          index,
		Lock:           rebuildLock,
		StateStore:     stateStore,
		Active:         active,
		AI:             runtimeServices,
		Policy:         domain.FailurePolicy(cfg.Pipeline.FailurePolicy),
		EmbedBatchSize: cfg.Pipeline.EmbedBatchSize,
		Topics:         cfg.Pipeline.Topics,
		LockTTL:        cfg.Pipeline.LockTTL,
		Logger:         logger,
	})
	defer coordinator.Stop()

	answerConfig := services.DefaultAnswerConfig()
	answerConfig.TopK = cfg.Query.TopK
	answerConfig.MinScore = cfg.Query.MinScore
	answerService := services.NewAnswerService(active, retriever, assembler, runtimeServices, answerConfig, logger)

	// ===== Rebuild worker (optional) =====
	if cfg.Worker.Enabled {
		w := worker.NewWorker(worker.Config{
			Pipeline:   coordinator,
			Logger:     logger,
			Interval:   cfg.Worker.Interval,
			RunOnStart: cfg.Worker.RunOnStart,
		})
		if err := w.Start(ctx); err != nil {
			logger.Error("failed to start rebuild worker", "error", err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	// ===== HTTP server =====
	serverConfig := http.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		Version:           cfg.Server.Version,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		TokenTTL:          cfg.Auth.TokenTTL,
	}

	var dbPinger, redisPinger http.Pinger
	if db != nil {
		dbPinger = db
	}
	if redisLock != nil {
		redisPinger = redisLock
	}

	authAdapter := auth.NewAdapter(cfg.Auth.JWTSecret)
	server := http.NewServer(
		serverConfig,
		answerService,
		coordinator,
		authAdapter,
		active,
		dbPinger,
		redisPinger,
		logger,
	)

	if err := server.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
