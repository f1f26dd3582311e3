package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/sokoban/api"
	"github.com/wricardo/mcp-training/sokoban/game/levels"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/game/session"
	"github.com/wricardo/mcp-training/sokoban/transport/mcp"
	"github.com/wricardo/mcp-training/sokoban/transport/websocket"
)

const (
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
)

// services holds everything the transports share.
type services struct {
	game        service.GameService
	sessions    *session.Manager
	levels      *levels.Manager
	persistence session.SessionPersistence
	closers     []io.Closer
}

// Close flushes sessions to storage and releases storage connections.
func (s *services) Close() error {
	var errs []error
	if err := s.sessions.SaveAllSessions(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initializeServices wires the level store, session storage and the game service.
func initializeServices(ctx context.Context, cfg config, logger *log.Logger) (*services, error) {
	var store *levels.Manager
	if cfg.levelsDir == "" {
		store = levels.NewEmbeddedManager()
	} else {
		var err error
		store, err = levels.NewManager(cfg.levelsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create level manager: %w", err)
		}
	}
	if store.Count() == 0 {
		return nil, fmt.Errorf("no levels found (expected level1.txt in %q)", cfg.levelsDir)
	}

	s := &services{levels: store}

	switch {
	case cfg.redisURL != "":
		rp, err := session.NewRedisPersistenceFromURL(ctx, cfg.redisURL, store, cfg.sessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session persistence: %w", err)
		}
		s.persistence = rp
		s.closers = append(s.closers, rp)
		logger.Info("sessions stored in redis")
	case cfg.sessionsDir != "":
		fp, err := session.NewFilePersistence(cfg.sessionsDir, store)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		s.persistence = fp
		logger.WithField("dir", cfg.sessionsDir).Info("sessions stored on disk")
	default:
		logger.Warn("session persistence disabled")
	}

	s.sessions = session.NewManagerWithPersistence(s.persistence, logger)
	if err := s.sessions.LoadPersistedSessions(); err != nil {
		logger.WithError(err).Warn("failed to load persisted sessions")
	}

	s.game = service.NewGameService(s.sessions, store,
		service.WithLogger(logger),
		service.WithAutoAdvance(cfg.autoAdvance),
	)

	logger.WithFields(log.Fields{"levels": store.Count(), "sessions": s.sessions.Count()}).Info("services ready")
	return s, nil
}

// startBackground runs the session maintenance routines until ctx is done.
func (s *services) startBackground(ctx context.Context, cfg config, logger *log.Logger) {
	go sessionCleanupRoutine(ctx, s.sessions, cfg.sessionTTL, cleanupInterval)
	if s.persistence != nil {
		go storageSyncRoutine(ctx, s.sessions, s.persistence, syncInterval, logger)
	}
}

// sessionCleanupRoutine periodically evicts sessions idle for longer than maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, maxAge, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// storageSyncRoutine drops in-memory sessions whose stored copy was removed
// (session file deleted by hand, or the Redis key expired).
func storageSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphans(manager, persistence, logger)
		}
	}
}

func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, logger *log.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.WithField("session", sess.ID).Debug("pruned session missing from storage")
		}
	}
	if pruned > 0 {
		logger.WithField("pruned", pruned).Info("storage sync removed orphaned sessions")
	}
	return pruned
}

// newRouter mounts the REST API, the WebSocket endpoint and the /mcp endpoint.
func newRouter(svc service.GameService, hub *websocket.Hub, mcpClient *mcp.Client, logger *log.Logger) *mux.Router {
	router := api.NewServer(svc, hub, logger).Router()
	router.HandleFunc("/mcp", mcpHandler(mcpClient, logger))
	return router
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST.
func mcpHandler(client *mcp.Client, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications carry no response.
			w.WriteHeader(http.StatusAccepted)
			return
		}

		data, err := json.Marshal(response)
		if err != nil {
			logger.WithError(err).Error("failed to marshal mcp response")
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(parent context.Context, cfg config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := initializeServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			logger.WithError(err).Warn("failed to close services")
		}
	}()
	svcs.startBackground(ctx, cfg, logger)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	mcpClient := mcp.NewClient("http://" + cfg.addr)
	router := newRouter(svcs.game, hub, mcpClient, logger)

	httpServer := &http.Server{
		Addr:         cfg.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.WithFields(log.Fields{
			"api": "http://" + cfg.addr + "/api",
			"ws":  "ws://" + cfg.addr + "/ws?session=<session_id>",
			"mcp": "http://" + cfg.addr + "/mcp",
		}).Infof("%s v%s listening on %s", AppName, Version, cfg.addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cfg, router, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("http server shutdown")
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, cfg config, handler http.Handler, logger *log.Logger) {
	if cfg.ngrokToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logger.Info("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.ngrokToken))
	if err != nil {
		logger.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	url := tun.URL()
	logger.WithFields(log.Fields{
		"api": url + "/api",
		"ws":  url + "/ws?session=<session_id>",
		"mcp": url + "/mcp",
	}).Infof("ngrok tunnel established: %s", url)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.WithError(err).Error("ngrok server error")
	}
	logger.Info("ngrok tunnel closed")
}

// apiAvailable reports whether a Sokoban API answers at baseURL.
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening on
// cfg.addr; otherwise it serves an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, cfg config, logger *log.Logger) error {
	baseURL := "http://" + cfg.addr

	if apiAvailable(ctx, baseURL) {
		logger.WithField("url", baseURL).Info("using external API server for MCP")
	} else {
		svcs, err := initializeServices(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svcs.Close()

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		svcs.startBackground(runCtx, cfg, logger)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub(logger)
		go hub.Run(runCtx)

		internal := &http.Server{Handler: api.NewServer(svcs.game, hub, logger)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer internal.Close()

		logger.WithField("url", baseURL).Info("started internal API server for MCP")
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}
