package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/mlastra-dana/PerfilabPortal/internal/config"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/catalog"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/labresults"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/results"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/session"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/sharetoken"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/trends"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/db"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/middleware"
	"github.com/mlastra-dana/PerfilabPortal/internal/seed"
)

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger = logger.Level(cfg.ZerologLevel())

	ctx := context.Background()
	srv, err := newServer(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	defer srv.Close()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("storage", cfg.Storage).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// server is the assembled portal: echo routes plus the resources they hold.
type server struct {
	echo     *echo.Echo
	recorder *audit.Recorder
	closers  []func()
}

func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// auditRestoreLimit caps how much stored history is loaded at startup.
const auditRestoreLimit = 1000

func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*server, error) {
	srv := &server{}
	fail := func(err error) (*server, error) {
		srv.Close()
		return nil, err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return fail(err)
	}
	ds, err := seed.Default()
	if err != nil {
		return fail(err)
	}
	profiles, err := ds.Directory()
	if err != nil {
		return fail(err)
	}

	// Storage
	var (
		pool    *pgxpool.Pool
		docs    results.Repository
		reports labresults.Repository
		archive audit.Archive
	)
	auditOpts := []audit.Option{
		audit.WithLogger(logger),
		audit.WithSink(audit.LogSink(logger)),
	}
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fail(err)
		}
		srv.closers = append(srv.closers, pool.Close)
		logger.Info().Msg("connected to database")

		count, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
		if err != nil {
			return fail(fmt.Errorf("migrations: %w", err))
		}
		logger.Info().Int("applied", count).Msg("migrations up to date")

		docs = results.NewDocumentRepoPG(pool)
		reports = labresults.NewReportRepoPG(pool)
		archive = audit.NewStore(pool)
		auditOpts = append(auditOpts, audit.WithSink(archive))
	default:
		docs = results.NewMemoryRepo()
		reports = labresults.NewMemoryRepo()
	}
	if cfg.MetricsEnabled {
		auditOpts = append(auditOpts, audit.WithMetrics(reg))
	}
	recorder := audit.NewRecorder(auditOpts...)
	srv.recorder = recorder
	if archive != nil {
		n, err := recorder.Restore(ctx, archive, auditRestoreLimit)
		if err != nil {
			return fail(err)
		}
		logger.Info().Int("events", n).Msg("audit trail restored")
	}

	// Token registry
	registry, closeRegistry, err := openTokenRegistry(ctx, cfg, ds)
	if err != nil {
		return fail(err)
	}
	srv.closers = append(srv.closers, closeRegistry)

	validatorOpts := []sharetoken.Option{sharetoken.WithLogger(logger)}
	if cfg.MetricsEnabled {
		validatorOpts = append(validatorOpts, sharetoken.WithMetrics(reg))
	}
	validator := sharetoken.NewValidator(registry, validatorOpts...)

	key, generated, err := resolveSigningKey(cfg)
	if err != nil {
		return fail(err)
	}
	var issuer *sharetoken.Issuer
	if key != nil {
		if generated {
			logger.Warn().Msg("SHARE_SIGNING_KEY not set, using a random key; share links will not survive a restart")
		}
		issuer, err = sharetoken.NewIssuer(key, cfg.ShareLinkTTL, cfg.ShareBaseURL, registry, time.Now)
		if err != nil {
			return fail(err)
		}
	} else {
		logger.Warn().Msg("SHARE_SIGNING_KEY not set, share link issuing disabled")
	}

	builder := labresults.NewBuilder(cat)
	trendStore := trends.NewStore(cat)

	if cfg.SeedDemo {
		sum, err := ds.Apply(ctx, seed.Targets{
			Documents:    docs,
			Reports:      reports,
			Builder:      builder,
			Trends:       trendStore,
			Audit:        recorder,
			AuditArchive: archive,
		})
		if err != nil {
			return fail(fmt.Errorf("seed demo data: %w", err))
		}
		logger.Info().
			Int("documents", sum.Documents).
			Int("reports", sum.Reports).
			Int("trends", sum.Trends).
			Int("events", sum.Events).
			Msg("demo data loaded")
	}

	// Services
	resultsSvc := results.NewService(docs, profiles, recorder)
	labSvc := labresults.NewService(reports, builder, profiles, recorder)
	sessions := session.NewManager(profiles, recorder, time.Now)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	srv.echo = e

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader, auth.RoleHeader, auth.ActorHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
			IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
		}))
	}
	if cfg.MetricsEnabled {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		e.Use(middleware.NewMetrics(reg).Middleware())
		e.GET("/metrics", middleware.MetricsHandler(reg))
	}
	e.Use(auth.DemoRoleMiddleware())

	// Health
	e.GET("/health", db.HealthHandler(pool))

	// Public share links
	shareHandler := sharetoken.NewHandler(validator, issuer, resultsSvc, recorder)
	shareHandler.RegisterLinkRoutes(e.Group(""))

	// API
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.PageView(logger, middleware.PageViewRecorderFunc(func(entry middleware.PageViewEntry) error {
		recorder.Record(audit.PageView, entry.Actor, "Navegacion a "+entry.Path)
		return nil
	}), "/api/v1/audit"))

	catalog.NewHandler(cat).RegisterRoutes(apiV1)
	results.NewHandler(resultsSvc).RegisterRoutes(apiV1)
	labresults.NewHandler(labSvc).RegisterRoutes(apiV1)
	trends.NewHandler(trendStore, profiles).RegisterRoutes(apiV1)
	shareHandler.RegisterRoutes(apiV1)
	session.NewHandler(sessions).RegisterRoutes(apiV1)
	audit.NewHandler(recorder).RegisterRoutes(apiV1)

	return srv, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.CatalogFile)
}

// tokenRegistry is what both the validator and the issuer need.
type tokenRegistry interface {
	sharetoken.Registry
	sharetoken.Registrar
}

// openTokenRegistry connects to Redis when REDIS_URL is set. Otherwise the
// demo tokens are served from memory.
func openTokenRegistry(ctx context.Context, cfg *config.Config, ds *seed.Dataset) (tokenRegistry, func(), error) {
	if cfg.RedisURL == "" {
		return sharetoken.NewStaticRegistry(ds.TokenMap()), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	registry := sharetoken.NewRedisRegistry(client)
	if cfg.SeedDemo {
		if _, err := ds.Apply(ctx, seed.Targets{Tokens: registry}); err != nil {
			client.Close()
			return nil, nil, err
		}
	}
	return registry, func() { client.Close() }, nil
}

// resolveSigningKey returns the share-link signing key. In development a
// random 32-byte key is generated when none is configured; the second return
// value reports that. A nil key disables issuing.
func resolveSigningKey(cfg *config.Config) ([]byte, bool, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, false, err
	}
	if key != nil || !cfg.IsDev() {
		return key, false, nil
	}
	key = make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random share signing key: %w", err)
	}
	return key, true, nil
}
