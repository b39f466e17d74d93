// Package server wires the stall passport server together: configuration,
// logging, the in-memory repositories, services and the HTTP and gRPC
// endpoints, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/logging"
	"github.com/dmitrijs2005/stallpass/internal/server/allowlist"
	"github.com/dmitrijs2005/stallpass/internal/server/config"
	"github.com/dmitrijs2005/stallpass/internal/server/httpapi"
	"github.com/dmitrijs2005/stallpass/internal/server/metrics"
	"github.com/dmitrijs2005/stallpass/internal/server/objectstore"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/stallpass/internal/server/services"
	"github.com/dmitrijs2005/stallpass/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	gs "github.com/dmitrijs2005/stallpass/internal/server/grpc"
)

const (
	serviceName     = "stallpass"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler *httpapi.Handler
	limiter *httpapi.RateLimiter
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	objects, err := newObjectStore(ctx, c)
	if err != nil {
		// the server still starts; s3 allow-list sources then load empty and
		// exports are not archived
		logger.Error(ctx, "object storage unavailable", "error", err)
		objects = nil
	}

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	allowList := allowlist.NewLoader(objects, httpClient, logger).LoadOrEmpty(ctx, c.AllowListSource)

	rm := repomanager.NewInMemoryRepositoryManager()
	mt := metrics.New()

	us := services.NewUserService(rm, allowList, c, mt)
	vs := services.NewVisitService(rm, c, logger, mt)
	as := services.NewAdminService(rm, vs, objects, c, logger, mt)

	return &App{
		config:  c,
		logger:  logger,
		handler: httpapi.NewHandler(us, vs, as, mt, logger),
		limiter: httpapi.NewRateLimiter(c.RateLimitPerSecond, c.RateLimitBurst, c.TrustProxyHeaders),
	}, nil
}

// newObjectStore returns nil unless something is configured to use S3.
func newObjectStore(ctx context.Context, c *config.Config) (objectstore.API, error) {
	if c.ExportBucket == "" && !strings.HasPrefix(c.AllowListSource, "s3://") {
		return nil, nil
	}

	client, err := objectstore.NewS3Client(ctx, objectstore.Options{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}
	return client, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) httpServer() *http.Server {
	return &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           otelhttp.NewHandler(app.handler.Handler(app.limiter), serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := app.httpServer()

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a shutdown signal arrives or one of
// the servers fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	shutdownTelemetry := telemetry.Setup(ctx, serviceName, app.config.OTLPEndpoint, app.config.OTLPInsecure, app.logger)
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(tctx); err != nil {
			app.logger.Warn(tctx, "telemetry shutdown error", "error", err)
		}
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
}
