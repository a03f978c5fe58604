package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bustrack/internal/audit"
	"bustrack/internal/auth"
	"bustrack/internal/config"
	messageapp "bustrack/internal/messages/application"
	messages "bustrack/internal/messages/domain"
	messagememory "bustrack/internal/messages/infrastructure/memory"
	messagepostgres "bustrack/internal/messages/infrastructure/postgres"
	messagehttp "bustrack/internal/messages/interfaces/http"
	"bustrack/internal/observability/metrics"
	"bustrack/internal/telemetry/application"
	"bustrack/internal/telemetry/application/broadcast"
	"bustrack/internal/telemetry/infrastructure/memory"
	telemetryhttp "bustrack/internal/telemetry/interfaces/http"
	"bustrack/internal/telemetry/interfaces/sse"
	"bustrack/internal/telemetry/interfaces/ws"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db := openDatabase(cfg.DatabaseURL, logger)
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, logger)

	hub := broadcast.NewHub(logger)
	telemetryService, err := application.NewService(
		memory.NewLatestStore(),
		application.WithNotifier(application.NewMultiNotifier(hub)),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("telemetry service error: %v", err)
	}
	ingestHandler, err := telemetryhttp.NewIngestHandler(telemetryService, logger, telemetryhttp.WithMaxBodyBytes(cfg.MaxBodyBytes))
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	latestHandler, err := telemetryhttp.NewLatestHandler(telemetryService)
	if err != nil {
		logger.Fatalf("latest handler error: %v", err)
	}
	wsHandler, err := ws.NewStreamHandler(hub, telemetryService.Snapshot, logger,
		ws.WithSendBuffer(cfg.WSSendBuffer),
		ws.WithWriteTimeout(cfg.WSWriteTimeout),
		ws.WithPingInterval(cfg.WSPingInterval),
		ws.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	if err != nil {
		logger.Fatalf("ws handler error: %v", err)
	}
	sseHandler := sse.NewStreamHandler(hub, telemetryService.Snapshot, logger, sse.WithSendBuffer(cfg.WSSendBuffer))

	var messageRepo messages.Repository = messagememory.NewRepository()
	var auditLogger audit.Logger = audit.NewLogSink(logger)
	if db != nil {
		messageRepo = messagepostgres.NewRepository(db)
		auditLogger = audit.NewRepository(db)
	}
	messageService, err := messageapp.NewService(messageRepo, messageapp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("message service error: %v", err)
	}
	messageHandler, err := messagehttp.NewHandler(messageService, auditLogger, logger)
	if err != nil {
		logger.Fatalf("message handler error: %v", err)
	}
	exportHandler, err := messagehttp.NewExportHandler(messageService, logger)
	if err != nil {
		logger.Fatalf("message export handler error: %v", err)
	}

	if cfg.JWTSecret == "" {
		logger.Printf("auth: AUTH_JWT_SECRET not set; admin routes will reject every request")
	}
	policy := auth.NewDefaultPolicy(auth.PublicPaths, auth.PublicPrefixes)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	authMiddleware.Logger = logger

	mux := http.NewServeMux()
	mux.Handle("/api/location/send-location", ingestHandler)
	mux.Handle("/api/location/get-latest-location", latestHandler)
	mux.Handle("/api/location/stream", sseHandler)
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", wsHandler.UpgradeOr(http.NotFoundHandler()))
	mux.Handle("/api/auth/send-message", messageHandler)
	mux.Handle("/api/auth/get-messages", messageHandler)
	mux.Handle("/api/auth/delete-message", messageHandler)
	mux.Handle("/api/admin/messages/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	case <-ctx.Done():
		logger.Printf("shutdown: signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: http server: %v", err)
	}
	logger.Printf("shutdown: complete")
}

// openDatabase returns nil when no DSN is configured.
func openDatabase(dsn string, logger *log.Logger) *sql.DB {
	if dsn == "" {
		logger.Printf("db: DATABASE_URL not set; contact messages kept in memory")
		return nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	return db
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

// statusWriter records the response status. It forwards Flush and Hijack so
// the SSE and WebSocket handlers work behind it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("http: response does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
