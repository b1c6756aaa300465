package main

import (
	"context"
	"net/http"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/graph-gophers/graphql-transport-ws/graphqlws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"libraryapi/internal/auth"
	"libraryapi/internal/config"
	"libraryapi/internal/graph"
	"libraryapi/internal/httpx"
)

type serverDeps struct {
	cfg      config.HTTPConfig
	schema   *graphql.Schema
	resolver *graph.Resolver
	builder  *auth.ContextBuilder
	ready    func(ctx context.Context) error
	logger   *zap.Logger
}

type server struct {
	handler   http.Handler
	rateLimit *httpx.RateLimitMiddleware
}

func newServer(d serverDeps) *server {
	oc := httpx.NewOperationContext(d.builder, d.resolver.NewBookCountLoader, d.logger)

	graphqlHandler := graphqlws.NewHandlerFunc(d.schema,
		oc.Middleware(&relay.Handler{Schema: d.schema}),
		graphqlws.WithContextGenerator(oc),
	)

	router := http.NewServeMux()
	router.Handle("/graphql", graphqlHandler)
	router.Handle("/subscriptions", graphqlHandler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, httpx.CodeServiceUnavailable, "db not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("/metrics", promhttp.Handler())

	rl := httpx.NewRateLimitMiddleware(d.cfg.RateLimitRPS, d.cfg.RateLimitBurst, d.cfg.TrustForwardedFor)

	handler := httpx.Chain(router,
		httpx.RecoveryMiddleware(d.logger),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(d.logger),
		httpx.CORSMiddleware(d.cfg.AllowedOrigins),
		httpx.SecurityHeadersMiddleware(d.cfg.EnableHSTS),
		httpx.RequestSizeLimitMiddleware(d.cfg.MaxBodyBytes),
		rl.Middleware,
	)

	return &server{handler: handler, rateLimit: rl}
}

func (s *server) Handler() http.Handler {
	return s.handler
}

func (s *server) Close() {
	s.rateLimit.Close()
}
