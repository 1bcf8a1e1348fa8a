// Package server builds the application's dependency graph and runs it on the
// configured transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/api"
	"github.com/JakeFAU/stayscout/internal/config"
	collyfetcher "github.com/JakeFAU/stayscout/internal/fetcher/colly"
	"github.com/JakeFAU/stayscout/internal/logging"
	"github.com/JakeFAU/stayscout/internal/mcpserver"
	"github.com/JakeFAU/stayscout/internal/robots"
	"github.com/JakeFAU/stayscout/internal/scout"
	"github.com/JakeFAU/stayscout/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg        config.Config
	version    string
	logger     *zap.Logger
	robots     *robots.Cache
	dispatcher *tools.Dispatcher
	mcp        *mcpserver.Server
	apiServer  *api.Server
}

// Build creates the logger and then the application's dependencies.
func Build(cfg config.Config, version string) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return NewApp(cfg, version, logger)
}

// NewApp wires the fetcher, robots cache, listing tools, dispatcher and both
// transports. Nothing touches the network until a call or Preload.
func NewApp(cfg config.Config, version string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := collyfetcher.New(collyfetcher.Config{
		UserAgent:      cfg.Crawler.UserAgent,
		Accept:         cfg.Crawler.Accept,
		AcceptLanguage: cfg.Crawler.AcceptLanguage,
		RateLimitRPS:   cfg.Crawler.RateLimitRPS,
		RateLimitBurst: cfg.Crawler.RateLimitBurst,
	}, logging.Component(logger, "fetcher"))

	cache := robots.NewCache(robots.Config{
		Origin:  cfg.Site.Origin,
		Agent:   cfg.Crawler.RobotsAgent,
		Respect: cfg.RespectRobots(),
	}, f, logging.Component(logger, "robots"))

	svc, err := scout.NewService(cfg.Site.Origin, f, cache, logging.Component(logger, "scout"))
	if err != nil {
		return nil, fmt.Errorf("listing service init failed: %w", err)
	}
	registry, err := tools.NewRegistry(svc.Tools()...)
	if err != nil {
		return nil, fmt.Errorf("tool registry init failed: %w", err)
	}
	dispatcher := tools.NewDispatcher(registry, logging.Component(logger, "dispatcher"))

	mcpSrv, err := mcpserver.New(version, dispatcher, logging.Component(logger, "mcp"))
	if err != nil {
		return nil, fmt.Errorf("mcp server init failed: %w", err)
	}

	return &App{
		cfg:        cfg,
		version:    version,
		logger:     logger,
		robots:     cache,
		dispatcher: dispatcher,
		mcp:        mcpSrv,
		apiServer:  api.NewServer(dispatcher, mcpSrv.HTTPHandler(), cache, version, logging.Component(logger, "api")),
	}, nil
}

// Dispatcher exposes the tool core for in-process callers such as the CLI.
func (a *App) Dispatcher() *tools.Dispatcher {
	return a.dispatcher
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Preload fetches robots.txt ahead of the first call when configured to.
func (a *App) Preload(ctx context.Context) {
	if !a.cfg.Crawler.RobotsPreload || !a.robots.Enforcing() {
		return
	}
	a.robots.EnsureLoaded(ctx)
}

// Run serves the configured transport until SIGINT/SIGTERM or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Preload(ctx)
	a.logStartup()

	switch a.cfg.Server.Transport {
	case config.TransportStdio:
		return a.ServeStdio(ctx, os.Stdin, os.Stdout)
	default:
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
		if err != nil {
			return fmt.Errorf("listen on port %d: %w", a.cfg.Server.Port, err)
		}
		return a.ServeHTTP(ctx, ln)
	}
}

// ServeHTTP serves the API and MCP routes on ln until ctx is done, then shuts
// down gracefully.
func (a *App) ServeHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// ServeStdio runs the MCP stdio transport over in/out.
func (a *App) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := a.mcp.ServeStdio(ctx, in, out); err != nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// Close flushes the logger.
func (a *App) Close() {
	// Sync on stderr returns EINVAL on some platforms; nothing useful to do with it.
	_ = a.logger.Sync()
}

func (a *App) logStartup() {
	fields := []zap.Field{
		zap.String("version", a.version),
		zap.String("transport", a.cfg.Server.Transport),
		zap.String("origin", a.cfg.Site.Origin),
		zap.Bool("robots_respected", a.robots.Enforcing()),
		zap.Bool("robots_loaded", a.robots.Loaded()),
	}
	if a.cfg.Server.Transport != config.TransportStdio {
		fields = append(fields,
			zap.Int("port", a.cfg.Server.Port),
			zap.Strings("endpoints", api.Endpoints),
		)
	}
	a.logger.Info("stayscout server starting", fields...)
}
