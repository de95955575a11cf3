// Package server 提供 AG-UI 协议的 HTTP/SSE 服务
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jiangwlee/smartrade-adk/internal/agui"
	"github.com/Jiangwlee/smartrade-adk/internal/config"
	"github.com/Jiangwlee/smartrade-adk/internal/logger"
)

var log = logger.New("Server")

// 协议错误码
const (
	CodeAgentError    = "AGENT_ERROR"
	CodeEncodingError = "ENCODING_ERROR"
)

// Engine 对账引擎，按 Agent 名称路由
type Engine interface {
	Run(ctx context.Context, input agui.RunAgentInput) iter.Seq2[agui.Event, error]
}

// Server AG-UI HTTP 服务
type Server struct {
	cfg        config.ServerConfig
	engines    map[string]Engine
	httpServer *http.Server
}

// New 创建服务，engines 的键为对外暴露的 Agent 名称
func New(cfg config.ServerConfig, engines map[string]Engine) *Server {
	s := &Server{cfg: cfg, engines: engines}
	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Router(),
	}
	return s
}

// Router 构建路由
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/adk/copilotkit/{agent}", s.runAgent)
	r.Get("/healthz", s.health)

	return r
}

// Start 启动服务
func (s *Server) Start() error {
	log.Info("HTTP 服务启动: %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// runAgent 处理一轮会话请求，以 SSE 流式返回协议事件
func (s *Server) runAgent(w http.ResponseWriter, r *http.Request) {
	agentName := chi.URLParam(r, "agent")
	engine, ok := s.engines[agentName]
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("未知的 agent: %s", agentName))
		return
	}

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}
	if input.ThreadID == "" {
		writeJSONError(w, http.StatusBadRequest, "threadId 不能为空")
		return
	}

	encoder := agui.NewEventEncoder()
	w.Header().Set("Content-Type", encoder.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	send := func(ev agui.Event) bool {
		data, err := encoder.Encode(ev)
		if err != nil {
			log.WithError(err).Error("事件编码失败, thread=%s", input.ThreadID)
			if errData, encErr := encoder.Encode(agui.NewRunError(err.Error(), CodeEncodingError)); encErr == nil {
				w.Write(errData)
				flusher.Flush()
			}
			return false
		}
		w.Write(data)
		flusher.Flush()
		return true
	}

	if !send(agui.NewRunStarted(input.ThreadID, input.RunID)) {
		return
	}

	for event, err := range engine.Run(r.Context(), input) {
		if err != nil {
			log.WithError(err).Error("agent 运行失败, thread=%s, agent=%s", input.ThreadID, agentName)
			send(agui.NewRunError(err.Error(), CodeAgentError))
			return
		}
		if !send(event) {
			return
		}
	}

	send(agui.NewRunFinished(input.ThreadID, input.RunID))
}

// health 健康检查
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// requestLogger 请求日志
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("%s %s 耗时 %s", r.Method, r.URL.Path, time.Since(start))
	})
}
