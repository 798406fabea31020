package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthPath is the unauthenticated liveness endpoint.
const HealthPath = "/health"

const (
	// readHeaderTimeout is the timeout for reading request headers.
	readHeaderTimeout = 10 * time.Second
	// idleTimeout closes idle keep-alive connections.
	idleTimeout = 60 * time.Second
	// shutdownTimeout is the timeout for graceful server shutdown.
	shutdownTimeout = 5 * time.Second
	// maxHeaderBytes bounds request header size.
	maxHeaderBytes = 1 << 20
)

// API represents the HTTP API server.
type API struct {
	Token       string
	Addr        string
	hasHandlers bool
	mux         *http.ServeMux
	server      HTTPServer // Optional injected server for testing
}

// HTTPServer is the server lifecycle used by RunHTTPServer.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// New creates an API instance.
//
// Parameters:
//   - token: Bearer token required by every endpoint except /health.
//   - addr: Listen address, for example ":8080".
//   - server: Optional server used instead of a real http.Server.
//
// Returns:
//   - *API: API with the health endpoint registered.
func New(token, addr string, server ...HTTPServer) *API {
	var injected HTTPServer
	if len(server) > 0 {
		injected = server[0]
	}

	api := &API{
		Token:  token,
		Addr:   addr,
		mux:    http.NewServeMux(),
		server: injected,
	}

	api.mux.HandleFunc(HealthPath, healthHandler)

	logrus.WithField("addr", addr).Debug("Initialized new API instance")

	return api
}

// RegisterFunc registers a token-protected handler function for path.
func (a *API) RegisterFunc(path string, handler http.HandlerFunc) {
	a.RegisterHandler(path, handler)
}

// RegisterHandler registers a token-protected handler for path.
func (a *API) RegisterHandler(path string, handler http.Handler) {
	a.mux.Handle(path, a.RequireToken(handler))
	a.hasHandlers = true

	logrus.WithField("path", path).Debug("Registered API endpoint")
}

// Handler returns the routing handler, including authentication.
func (a *API) Handler() http.Handler {
	return a.mux
}

// Start starts the HTTP API server.
//
// When no handler is registered the server is not started. When blocking is
// true Start returns after ctx is cancelled and the server has shut down.
//
// Parameters:
//   - ctx: Lifetime of the server.
//   - blocking: Whether to run in the foreground.
//
// Returns:
//   - error: Non-nil if the token is missing or the server fails.
func (a *API) Start(ctx context.Context, blocking bool) error {
	if !a.hasHandlers {
		logrus.Debug("Tagwatch HTTP API skipped.")

		return nil
	}

	if a.Token == "" {
		return errMissingToken
	}

	server := a.server
	if server == nil {
		server = &http.Server{
			Addr:              a.Addr,
			Handler:           a.mux,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		}
	}

	logrus.WithField("addr", a.Addr).Info("Starting HTTP API server")

	if blocking {
		return RunHTTPServer(ctx, server)
	}

	go func() {
		if err := RunHTTPServer(ctx, server); err != nil {
			logrus.WithError(err).Error("HTTP API server failed")
		}
	}()

	return nil
}

// RequireToken wraps a handler with bearer token authentication.
func (a *API) RequireToken(handler http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.Token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
			logrus.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Debug("Rejected unauthenticated API request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)

			return
		}

		handler.ServeHTTP(w, r)
	}
}

// RunHTTPServer starts the HTTP server and handles graceful shutdown.
//
// Parameters:
//   - ctx: Cancelling ctx shuts the server down.
//   - server: Server to run.
//
// Returns:
//   - error: Listen error, or shutdown error; nil on clean shutdown.
func RunHTTPServer(ctx context.Context, server HTTPServer) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%w: %w", errShutdownFailed, err)
		}

		logrus.Debug("HTTP API server stopped")

		return nil
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, _ = io.WriteString(w, "ok\n")
}
