package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore SQLite 知识库
//
// 将条文与向量持久化到 SQLite，检索走内存索引。
// 打开时加载全部条文重建索引，与离线构建流程配合使用
// （见 cmd/build-index）。
type SQLiteStore struct {
	db  *sql.DB
	mem *InMemoryStore
}

// NewSQLiteStore 打开（或创建）SQLite 知识库
func NewSQLiteStore(dbPath string, embedder Embedder) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		mem: NewInMemoryStore(embedder),
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	if err := s.loadAll(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load passages: %w", err)
	}

	return s, nil
}

// initSchema 初始化表结构
func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		metadata TEXT,
		vector TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_passages_created_at ON passages(created_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// loadAll 加载全部条文并重建内存索引
func (s *SQLiteStore) loadAll(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, vector FROM passages ORDER BY created_at`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var p Passage
		var metadataStr, vectorStr sql.NullString

		if err := rows.Scan(&p.ID, &p.Content, &metadataStr, &vectorStr); err != nil {
			return err
		}

		if metadataStr.Valid && metadataStr.String != "" {
			if err := json.Unmarshal([]byte(metadataStr.String), &p.Metadata); err != nil {
				continue // 跳过无效记录
			}
		}
		if vectorStr.Valid && vectorStr.String != "" {
			if err := json.Unmarshal([]byte(vectorStr.String), &p.Vector); err != nil {
				continue
			}
		}

		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(passages) == 0 {
		return nil
	}
	return s.mem.Add(ctx, passages)
}

// Add 添加条文并持久化
func (s *SQLiteStore) Add(ctx context.Context, passages []Passage) error {
	if err := s.mem.Add(ctx, passages); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	query := `
	INSERT INTO passages (id, content, metadata, vector, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		metadata = excluded.metadata,
		vector = excluded.vector
	`

	for _, p := range passages {
		metadata, err := json.Marshal(p.Metadata)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		vector, err := json.Marshal(p.Vector)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal vector: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, p.ID, p.Content, string(metadata), string(vector), now); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// SimilaritySearch 按嵌入距离检索最相似的 k 条条文
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error) {
	return s.mem.SimilaritySearch(ctx, query, k)
}

// KeywordSearch 按词法匹配检索最相关的 k 条条文
func (s *SQLiteStore) KeywordSearch(ctx context.Context, query string, k int) ([]Passage, error) {
	return s.mem.KeywordSearch(ctx, query, k)
}

// Size 返回条文数量
func (s *SQLiteStore) Size() int {
	return s.mem.Size()
}

// Close 关闭数据库连接
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// compile-time interface check
var _ Store = (*SQLiteStore)(nil)
