package server

import (
	"embed"
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/config"
)

//go:embed assets/*
var assets embed.FS

// NewHTTPServer 创建 HTTP 服务并注册向导的全部路由
func NewHTTPServer(c config.ServerConfig, h *Handler) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	srv.HandleFunc("/api/session", h.CreateSession)
	srv.HandleFunc("/api/session/{id}", h.GetSession)
	srv.HandleFunc("/api/session/{id}/upload", h.Upload)
	srv.HandleFunc("/api/session/{id}/confirm", h.Confirm)
	srv.HandleFunc("/api/session/{id}/proceed", h.Proceed)
	srv.HandleFunc("/api/session/{id}/select", h.Select)
	srv.HandleFunc("/api/session/{id}/export", h.Export)
	srv.HandleFunc("/api/session/{id}/report", h.Report)
	srv.HandleFunc("/api/session/{id}/reset", h.Reset)

	// 向导页面：单页应用，由前端按会话状态切换视图
	srv.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/" {
			content, _ := assets.ReadFile("assets/index.html")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(content)
			return
		}
		nethttp.NotFound(w, r)
	})

	return srv
}
