// Package httpapi 以只读 JSON 接口的形式暴露隧道列表和抓取历史。
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cpolarstatus/internal/logger"
	api "cpolarstatus/pkg/api"
	"cpolarstatus/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// defaultHistoryLimit /api/history 未指定 limit 时的条数
const defaultHistoryLimit = 20

// Server HTTP 接口服务
type Server struct {
	svc api.Service
	log logger.Logger
}

// NewServer 创建 HTTP 接口服务
func NewServer(svc api.Service, l logger.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}
	return &Server{svc: svc, log: l}
}

// Router 返回注册好所有路由的 handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.OK(map[string]string{"status": "ok"}))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/tunnels", s.handleTunnels)
		r.Get("/history", s.handleHistoryList)
		r.Get("/history/{id}", s.handleHistoryGet)
	})
	return r
}

// ListenAndServe 监听地址直到 ctx 取消，随后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP 接口已启动", "listen", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("HTTP 接口正在关闭")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleTunnels(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.FetchTunnels(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.OK(list))
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, api.Fail[any](CodeInvalidParams, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	items, total, err := s.svc.ListSnapshots(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []*domain.TunnelSnapshot{}
	}
	writeJSON(w, http.StatusOK, api.OK(api.HistoryPage{Total: total, Items: items}))
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.OK(snap))
}

// requestLog 记录每个请求的方法、路径、状态码和耗时
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP 请求",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

// writeError 把错误翻译为错误码和 HTTP 状态码后写出
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, status := translateError(err)
	if status >= http.StatusInternalServerError {
		s.log.Err(err, "请求处理失败", "code", code)
	} else {
		s.log.Warn("请求处理失败", "code", code, "error", err.Error())
	}
	writeJSON(w, status, api.Fail[any](code, err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
