// Package server 提供聊天服务的 HTTP 接入层
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/easyops/legalqa-go/pkg/core/config"
	"github.com/easyops/legalqa-go/pkg/core/errors"
	"github.com/easyops/legalqa-go/pkg/obs"
	"github.com/easyops/legalqa-go/pkg/service"
)

// Server 聊天服务 HTTP 服务器
type Server struct {
	chat   *service.ChatService
	cfg    config.ServerConfig
	logger obs.Logger
}

// New 创建 HTTP 服务器
func New(chat *service.ChatService, cfg config.ServerConfig, logger obs.Logger) *Server {
	if logger == nil {
		logger = obs.NewNoopLogger()
	}
	return &Server{
		chat:   chat,
		cfg:    cfg,
		logger: logger,
	}
}

// Handler 构建路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)

	return r
}

// ListenAndServe 启动服务
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
	}
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	return srv.ListenAndServe()
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat 处理聊天请求
//
// 输入错误返回 400；fallback 仍是 200 的正常结果；
// 其余内部错误统一 500。
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		logger := s.logger.WithContext(r.Context())
		if errors.IsClientError(err) {
			logger.Warn("chat rejected", "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse 错误响应体
type errorResponse struct {
	Error string `json:"error"`
}

// writeError 输出错误响应
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
