// Package http is the JSON API surface of the billing service. Handlers
// parse and authenticate, then delegate to the billing service; all
// filtering and aggregation stays in the core query engine.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bollette/internal/auth"
	"bollette/internal/billing"
	"bollette/internal/cache"
	"bollette/internal/core"
	"bollette/internal/middleware/ratelimit"
	"bollette/internal/middleware/security"
	"bollette/internal/middleware/trace"
)

// Deps carries the collaborators the server needs.
type Deps struct {
	Bills     *billing.BillService
	Generator *billing.Generator
	Tokens    *auth.JWTManager
	Accounts  *auth.PasswordAuthenticator

	// RateLimit defaults to 60 requests per minute per client when zero.
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server

	bills     *billing.BillService
	generator *billing.Generator
	tokens    *auth.JWTManager
	accounts  *auth.PasswordAuthenticator

	limiter *ratelimit.Limiter
	ips     *security.IPExtractor

	// summaryCache memoizes summary responses per owner scope. Write
	// paths invalidate it.
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		bills:        deps.Bills,
		generator:    deps.Generator,
		tokens:       deps.Tokens,
		accounts:     deps.Accounts,
		limiter:      ratelimit.NewLimiter(deps.RateLimit),
		ips:          security.NewIPExtractor(),
		summaryCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)

	mux.HandleFunc("GET /api/bills", s.authed(s.handleListBills))
	mux.HandleFunc("GET /api/bills/recent", s.authed(s.handleRecentBills))
	mux.HandleFunc("GET /api/bills/{id}", s.authed(s.handleGetBill))
	mux.HandleFunc("POST /api/bills/{id}/pay", s.authed(s.handlePayBill))
	mux.HandleFunc("GET /api/summary", s.authed(s.handleSummary))

	mux.HandleFunc("POST /api/admin/bills/generate", s.adminOnly(s.handleGenerateBills))
	mux.HandleFunc("GET /api/admin/stats", s.adminOnly(s.handleStats))

	tracer := trace.NewMiddleware(s.ips.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.ips.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(limited(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops background maintenance and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
