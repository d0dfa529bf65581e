// Package web provides a read-only HTTP JSON API over an expenses ledger file.
//
// The server loads the ledger file once on start and, when watching is
// enabled, reloads it whenever the file changes on disk. Connected clients are
// notified of reloads through Server-Sent Events on /api/events. Ledger
// aggregates are exported as Prometheus gauges on /metrics.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/config"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
	"github.com/robinvdvleuten/expenses/telemetry"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool

	mu       sync.RWMutex
	ledger   *ledger.Ledger
	source   []byte
	result   *codec.Result
	loadErr  error // decode error of the last load, the ledger holds what was read before it
	loadedAt time.Time

	ledgerFile string
	config     *config.Config
	logger     *slog.Logger
	metrics    *metrics
	now        func() time.Time

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by /api/status.
func WithVersion(version, commitSHA string) Option {
	return func(s *Server) {
		s.Version = version
		s.CommitSHA = commitSHA
	}
}

// WithConfig sets the configuration applied to every loaded ledger.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWatch reloads the ledger when the file changes.
func WithWatch() Option {
	return func(s *Server) {
		s.WatchEnabled = true
	}
}

func New(port int, ledgerFile string, opts ...Option) *Server {
	s := &Server{
		Port:       port,
		Host:       "127.0.0.1",
		ledgerFile: ledgerFile,
		config:     config.Default(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    newMetrics(),
		now:        time.Now,
		sseClients: make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the ledger and serves until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("web.start %s:%d", s.Host, s.Port))

	if s.ledgerFile == "" {
		timer.End()
		return fmt.Errorf("ledger file is required")
	}

	if err := s.reloadLedger(telemetry.WithTimer(ctx, timer)); err != nil {
		timer.End()
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.WatchEnabled {
		watcher, err := s.newWatcher()
		if err != nil {
			timer.End()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		g.Go(func() error {
			s.runWatcher(gctx, watcher)
			return nil
		})
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(s.Host, fmt.Sprint(s.Port)),
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		// Requests end when the server stops, which also closes SSE streams.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}
	timer.End()

	g.Go(func() error {
		s.logger.InfoContext(gctx, "server listening", "addr", srv.Addr, "file", s.ledgerFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/source", s.handleGetSource)
	mux.HandleFunc("GET /api/expenses", s.handleGetExpenses)
	mux.HandleFunc("GET /api/totals", s.handleGetTotals)
	mux.HandleFunc("GET /api/categories", s.handleGetCategories)
	mux.HandleFunc("GET /api/months", s.handleGetMonths)
	mux.HandleFunc("GET /api/range", s.handleGetRange)
	mux.HandleFunc("GET /api/savings", s.handleGetSavings)
	mux.HandleFunc("GET /api/recurring", s.handleGetRecurring)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.Handle("GET /metrics", s.metrics.handler())

	return mux
}

// reloadLedger loads or reloads the ledger from disk.
// Caller must NOT hold the mutex - this method acquires it internally.
//
// Only a read failure is returned. A decode error is kept on the server and
// reported by the API, together with the records read before it.
func (s *Server) reloadLedger(ctx context.Context) error {
	data, err := os.ReadFile(s.ledgerFile)
	if err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		return &loader.FileError{Op: "load", Path: s.ledgerFile, Err: err}
	}

	l := ledger.New(s.config.LedgerConfig().Options()...)
	s.config.DeclareRecurring(l)

	ldr := loader.New(loader.WithLogger(s.logger))
	result, loadErr := ldr.LoadBytes(ctx, filepath.Base(s.ledgerFile), data, l)
	s.config.ApplyLimitOverride(l)
	if loadErr != nil {
		s.logger.WarnContext(ctx, "ledger loaded with errors", "file", s.ledgerFile, "error", loadErr)
	}

	s.mu.Lock()
	s.ledger = l
	s.source = data
	s.result = result
	s.loadErr = loadErr
	s.loadedAt = s.now()
	s.metrics.observe(l)
	s.mu.Unlock()

	status := "ok"
	if loadErr != nil {
		status = "partial"
	}
	s.metrics.reloads.WithLabelValues(status).Inc()

	return nil
}

func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(s.ledgerFile); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.ledgerFile, err)
	}

	return watcher, nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors often write files in multiple steps.
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove and Rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}

// handleFileChange reloads the ledger and notifies SSE clients.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	if err := s.reloadLedger(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to reload ledger", "error", err)
		return
	}

	// Re-add to catch files re-created by atomic saves.
	if err := watcher.Add(s.ledgerFile); err != nil {
		s.logger.WarnContext(ctx, "failed to watch ledger file", "file", s.ledgerFile, "error", err)
	}

	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
