package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"librarydesk/internal/book"
	"librarydesk/internal/config"
	"librarydesk/internal/httpx"
	"librarydesk/internal/loan"
	"librarydesk/internal/member"
	"librarydesk/internal/store"
)

// newHandler builds the full middleware chain around the API mux. The
// returned func stops background work owned by the handler.
func newHandler(cfg config.Config, logger *zap.Logger, st *store.Store) (http.Handler, func()) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	auth := httpx.AuthMiddleware(cfg.JWTSecret)
	book.NewHTTPHandler(book.NewService(st.Books, logger)).Register(mux, auth)
	member.NewHTTPHandler(member.NewService(st.Members)).Register(mux, auth)
	loan.NewHTTPHandler(loan.NewService(st.Loans, logger)).Register(mux, auth)

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	h := httpx.Chain(mux,
		httpx.RecoveryMiddleware(logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
	return h, limiter.Stop
}
