package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pizzafoundry/pizza-service/internal/auth"
	"github.com/pizzafoundry/pizza-service/internal/franchise"
	"github.com/pizzafoundry/pizza-service/internal/order"
	"github.com/pizzafoundry/pizza-service/internal/user"
	"github.com/pizzafoundry/pizza-service/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", r.Header.Get("X-Request-Id"),
			)
		})
	}
}

// RequestIDMiddleware stamps each request with a KSUID so log lines for one
// request can be correlated. An id supplied by the caller is kept.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = utilities.NewRequestID()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// HSTS - instruct browsers to use HTTPS for future requests. Only set if request is over TLS.
			if r.TLS != nil {
				// 30 days by default
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Config carries the knobs RegisterRoutes needs beyond the DB handle.
type Config struct {
	Tokens      auth.TokenConfig
	Factory     order.FactoryConfig
	ListPerPage int
}

// RegisterRoutes builds the services and mounts all HTTP handlers on the
// standard library's http.ServeMux, wrapped with the shared middleware
// chain.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, cfg Config) http.Handler {
	tokens := auth.NewTokenService(cfg.Tokens)
	userSvc := user.NewService(db, nil, nil)
	authSvc := auth.NewService(db, userSvc, tokens)
	franchiseSvc := franchise.NewService(db, nil)
	orderSvc := order.NewService(db, nil, order.NewFulfillmentClient(cfg.Factory))

	authHandler := auth.NewHandler(authSvc, logger)
	userHandler := user.NewHandler(userSvc, authSvc, cfg.ListPerPage, logger)
	franchiseHandler := franchise.NewHandler(franchiseSvc, logger)
	orderHandler := order.NewHandler(orderSvc, cfg.ListPerPage, logger)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// session
	mux.HandleFunc("POST /api/auth", authHandler.Register)
	mux.HandleFunc("PUT /api/auth", authHandler.Login)
	mux.HandleFunc("DELETE /api/auth", authHandler.Logout)

	// users
	mux.HandleFunc("GET /api/user/me", userHandler.Me)
	mux.HandleFunc("PUT /api/user/{userId}", userHandler.Update)
	mux.HandleFunc("DELETE /api/user/{userId}", userHandler.Delete)
	mux.HandleFunc("GET /api/user", userHandler.List)

	// menu and orders
	mux.HandleFunc("GET /api/order/menu", orderHandler.Menu)
	mux.HandleFunc("PUT /api/order/menu", orderHandler.AddMenuItem)
	mux.HandleFunc("GET /api/order", orderHandler.List)
	mux.HandleFunc("POST /api/order", orderHandler.Create)

	// franchises and stores
	mux.HandleFunc("POST /api/franchise", franchiseHandler.Create)
	mux.HandleFunc("GET /api/franchise/{userId}", franchiseHandler.ListForUser)
	mux.HandleFunc("DELETE /api/franchise/{franchiseId}", franchiseHandler.Delete)
	mux.HandleFunc("POST /api/franchise/{franchiseId}/store", franchiseHandler.CreateStore)
	mux.HandleFunc("DELETE /api/franchise/{franchiseId}/store/{storeId}", franchiseHandler.DeleteStore)

	// bearer validation runs inside the outer middleware so every log line
	// carries the request id
	handler := authSvc.Middleware(mux)
	handler = SecurityHeadersMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	return handler
}
