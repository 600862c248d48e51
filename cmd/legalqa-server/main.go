// legalqa-server 启动法律问答 HTTP 服务
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easyops/legalqa-go/pkg/core/config"
	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/history"
	"github.com/easyops/legalqa-go/pkg/knowledge"
	"github.com/easyops/legalqa-go/pkg/obs"
	"github.com/easyops/legalqa-go/pkg/qa"
	"github.com/easyops/legalqa-go/pkg/rerank"
	"github.com/easyops/legalqa-go/pkg/server"
	"github.com/easyops/legalqa-go/pkg/service"
	"github.com/easyops/legalqa-go/pkg/session"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	provider, err := obs.NewProvider(ctx, cfg.Observability)
	if err != nil {
		slog.Error("init observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	logger := provider.Logger()
	tracer := provider.Tracer()

	llmClient, err := llm.FromConfig(cfg.LLM)
	if err != nil {
		logger.Error("init llm client", "error", err)
		os.Exit(1)
	}
	defer llmClient.Close()

	store, err := knowledge.NewSQLiteStore(cfg.Retrieval.IndexPath, llmClient)
	if err != nil {
		logger.Error("open knowledge store", "error", err, "path", cfg.Retrieval.IndexPath)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("knowledge store loaded", "passages", store.Size())

	retriever := knowledge.NewHybridRetriever(store,
		knowledge.WithVectorTopK(cfg.Retrieval.VectorTopK),
		knowledge.WithKeywordTopK(cfg.Retrieval.KeywordTopK),
	)

	scorer := rerank.NewScorer(llmClient, rerank.WithLogger(logger))

	chain := qa.NewChain(retriever, scorer, llmClient,
		qa.WithThreshold(cfg.Retrieval.ScoreThreshold),
		qa.WithMaxSelected(cfg.Retrieval.MaxSelected),
		qa.WithMaxContextChars(cfg.Retrieval.MaxContextChars),
		qa.WithLogger(logger),
		qa.WithTracer(tracer),
	)

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("connect redis", "error", err, "addr", cfg.Session.RedisAddr)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(client, session.WithTTL(cfg.Session.TTL))
	default:
		sessions = session.NewCacheStore(cfg.Session.TTL)
	}

	compressor := history.NewCompressor(
		history.WithMaxMessages(cfg.History.MaxMessages),
		history.WithMaxTokens(cfg.History.MaxTokens),
	)

	chat := service.NewChatService(chain, sessions, compressor, service.WithLogger(logger))

	srv := server.New(chat, cfg.Server, logger)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
