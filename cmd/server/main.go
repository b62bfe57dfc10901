package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopsearch-be/internal/catalog"
	"shopsearch-be/internal/config"
	"shopsearch-be/internal/handler"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/metrics"
	"shopsearch-be/internal/middleware"
	"shopsearch-be/internal/search"
	"shopsearch-be/internal/shop"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// startServerFunc is swapped in tests so run does not bind a port.
var startServerFunc = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run(args []string) error {
	cfg := config.LoadConfig()
	if err := applyFlags(cfg, args); err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET is empty, shop searches will run without a session")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newServer(cfg, prometheus.NewRegistry())
	go app.widgetLimiter.Run(ctx)
	go app.visitorLimiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 search server running", zap.String("addr", srv.Addr))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// applyFlags lets --port and --env override the environment.
func applyFlags(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	port := flags.String("port", cfg.AppPort, "port to listen on")
	env := flags.String("env", cfg.AppEnv, "runtime environment")
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg.AppPort = *port
	cfg.AppEnv = *env
	return nil
}

type server struct {
	handler        http.Handler
	widgetLimiter  *middleware.WindowLimiter
	visitorLimiter *middleware.VisitorLimiter
}

func newServer(cfg *config.Config, reg *prometheus.Registry) *server {
	rec := metrics.NewRecorder(reg)
	upstream := &http.Client{Timeout: cfg.UpstreamTimeout}

	tokens := catalog.NewTokenCache(catalog.Credentials{
		ClientID:     cfg.CatalogClientID,
		ClientSecret: cfg.CatalogClientSecret,
		TokenURL:     cfg.CatalogTokenURL,
	}, upstream)
	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, tokens, upstream, rec)
	shopClient := shop.NewClient(cfg.ShopAPIVersion, upstream, rec)

	searchSvc := search.NewService(catalogClient, shopClient, cfg.UpstreamTimeout, rec)

	s := &server{
		widgetLimiter:  middleware.NewWindowLimiter(middleware.WidgetRequestLimit, middleware.WidgetWindow),
		visitorLimiter: middleware.NewVisitorLimiter(cfg.InternalSecretKey),
	}
	s.handler = setupRouter(routes{
		handler:        handler.NewHandler(searchSvc),
		metrics:        rec.Handler(),
		widgetLimiter:  s.widgetLimiter,
		visitorLimiter: s.visitorLimiter,
		sessionSecret:  []byte(cfg.SessionSecret),
		corsOrigins:    cfg.CORSOrigins,
	})
	return s
}

type routes struct {
	handler        *handler.Handler
	metrics        http.Handler
	widgetLimiter  *middleware.WindowLimiter
	visitorLimiter *middleware.VisitorLimiter
	sessionSecret  []byte
	corsOrigins    []string
}

func setupRouter(rt routes) http.Handler {
	h := rt.handler

	api := http.NewServeMux()
	api.HandleFunc("POST /api/search", h.Search)
	api.HandleFunc("GET /api/products/{id...}", h.ProductByID)
	api.HandleFunc("POST /api/products/details", h.ProductDetails)

	widget := middleware.CORS(rt.corsOrigins)(
		rt.widgetLimiter.Middleware(http.HandlerFunc(h.WidgetSearch)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", rt.metrics)
	mux.Handle("POST /api/widget/search", widget)
	mux.Handle("OPTIONS /api/widget/search", widget)
	mux.Handle("/api/", middleware.Session(rt.sessionSecret)(rt.visitorLimiter.Middleware(api)))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
