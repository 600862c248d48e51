package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easyops/legalqa-go/pkg/core/config"
	"github.com/easyops/legalqa-go/pkg/core/llm"
	"github.com/easyops/legalqa-go/pkg/history"
	"github.com/easyops/legalqa-go/pkg/knowledge"
	"github.com/easyops/legalqa-go/pkg/qa"
	"github.com/easyops/legalqa-go/pkg/rerank"
	"github.com/easyops/legalqa-go/pkg/server"
	"github.com/easyops/legalqa-go/pkg/service"
	"github.com/easyops/legalqa-go/pkg/session"
)

// emptyStore implements knowledge.Store with no documents
type emptyStore struct{}

func (emptyStore) Add(ctx context.Context, passages []knowledge.Passage) error { return nil }

func (emptyStore) SimilaritySearch(ctx context.Context, query string, k int) ([]knowledge.Passage, error) {
	return nil, nil
}

func (emptyStore) KeywordSearch(ctx context.Context, query string, k int) ([]knowledge.Passage, error) {
	return nil, nil
}

func (emptyStore) Size() int { return 0 }

// cannedProvider implements llm.Provider with a fixed reply
type cannedProvider struct {
	answer string
}

func (p *cannedProvider) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Content: p.answer}, nil
}

func (p *cannedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (p *cannedProvider) Name() string { return "canned" }
func (p *cannedProvider) Model() string { return "canned-model" }
func (p *cannedProvider) Close() error { return nil }

func newTestHandler() http.Handler {
	retriever := knowledge.NewHybridRetriever(emptyStore{})
	provider := &cannedProvider{answer: "一般法律常识回答"}
	chain := qa.NewChain(retriever, rerank.NewScorer(provider), provider)
	chat := service.NewChatService(chain, session.NewCacheStore(time.Hour), history.NewCompressor())

	srv := server.New(chat, config.ServerConfig{Addr: ":0"}, nil)
	return srv.Handler()
}

func TestServer_Healthz(t *testing.T) {
	handler := newTestHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_ChatOK(t *testing.T) {
	handler := newTestHandler()

	body := `{"session_id":"s1","messages":[{"role":"user","content":"问题"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp service.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Answer == "" {
		t.Fatal("expected non-empty answer")
	}
	// Fallback is still a successful response, not an error status
	if resp.UsedKnowledge {
		t.Fatal("expected fallback result for empty knowledge base")
	}
}

func TestServer_ChatBadJSON(t *testing.T) {
	handler := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestServer_ChatMissingSessionID(t *testing.T) {
	handler := newTestHandler()

	body := `{"messages":[{"role":"user","content":"问题"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing session_id, got %d", rec.Code)
	}
}

func TestServer_ChatNoUserMessage(t *testing.T) {
	handler := newTestHandler()

	body := `{"session_id":"s1","messages":[{"role":"assistant","content":"只有助手消息"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	handler.ServeHTTP(rec, req)

	// A request without a user question is a client error, not a 500
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user message, got %d", rec.Code)
	}
}
