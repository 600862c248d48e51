// build-index 离线构建法律条文知识库
//
// 遍历目录下的 .txt 法律文本，按行切分为条文并提取条文编号，
// 经嵌入模型向量化后写入 SQLite 知识库。
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/easyops/legalqa-go/pkg/core/config"
	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/knowledge"
)

// embedBatchSize 单次嵌入请求的条文数上限
const embedBatchSize = 32

func main() {
	corpusDir := flag.String("corpus", "corpus", "法律文本目录")
	dbPath := flag.String("db", "", "SQLite 知识库路径（默认取配置）")
	flag.Parse()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *dbPath == "" {
		*dbPath = cfg.Retrieval.IndexPath
	}

	llmClient, err := llm.FromConfig(cfg.LLM)
	if err != nil {
		logger.Error("init llm client", "error", err)
		os.Exit(1)
	}
	defer llmClient.Close()

	passages, err := knowledge.LoadTxtDirectory(*corpusDir)
	if err != nil {
		logger.Error("load corpus", "error", err, "dir", *corpusDir)
		os.Exit(1)
	}
	logger.Info("corpus loaded", "passages", len(passages), "dir", *corpusDir)

	store, err := knowledge.NewSQLiteStore(*dbPath, llmClient)
	if err != nil {
		logger.Error("open knowledge store", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer store.Close()

	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		if err := store.Add(ctx, passages[start:end]); err != nil {
			logger.Error("index batch", "error", err, "start", start)
			os.Exit(1)
		}
		logger.Info("batch indexed", "done", end, "total", len(passages))
	}

	logger.Info("index built", "passages", store.Size(), "path", *dbPath)
}
