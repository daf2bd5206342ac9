package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/resellkit/ops-api/config"
	"github.com/resellkit/ops-api/internal/adapters/marketplace"
	"github.com/resellkit/ops-api/internal/data"
	domainjob "github.com/resellkit/ops-api/internal/domain/job"
	"github.com/resellkit/ops-api/internal/observability/statsd"
	"github.com/resellkit/ops-api/internal/ports"
	"github.com/resellkit/ops-api/internal/ratelimit"
	"github.com/resellkit/ops-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Validations   *service.ValidationService
	Bus           *domainjob.Bus
	Limiter       *ratelimit.Limiter
	Resolver      ports.RequesterResolver
	Cache         *data.RedisCacheRepo
	Observability ObservabilityContainer

	// stopLimiterCleanup stops the in-memory limiter sweep, when one runs.
	stopLimiterCleanup func()
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB          *sql.DB
	Redis       *redis.Client
	JobRepo     *data.JobRepo
	SessionRepo *data.SessionRepo
	ReportRepo  *data.ReportRepo
	ReaperRepo  *data.ReaperRepo
	CacheRepo   *data.RedisCacheRepo
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "opsapi",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient *redis.Client) *serviceRepositories {
	repos := &serviceRepositories{
		DB:          db,
		Redis:       redisClient,
		JobRepo:     data.NewJobRepo(db, data.RepoConfig{}),
		SessionRepo: data.NewSessionRepo(db, data.RepoConfig{}),
		ReportRepo:  data.NewReportRepo(db, data.RepoConfig{}),
		ReaperRepo:  data.NewReaperRepo(db, data.RepoConfig{}),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// buildLimiter assembles the admission-control gate from config. Returns a
// nil limiter (and no-op stop func) when rate limiting is disabled.
func buildLimiter(
	cfg config.RateLimitConfig,
	redisClient *redis.Client,
	logger *slog.Logger,
) (*ratelimit.Limiter, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}

	policy := ratelimit.Policy{
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
	}

	if cfg.UseRedis && redisClient != nil {
		store, err := ratelimit.NewRedisStore(ratelimit.RedisStoreOptions{Client: redisClient})
		if err != nil {
			return nil, nil, fmt.Errorf("build redis rate-limit store: %w", err)
		}
		limiter, err := ratelimit.New(store, policy)
		if err != nil {
			return nil, nil, fmt.Errorf("build rate limiter: %w", err)
		}
		if logger != nil {
			logger.Info("rate limiting enabled", "store", "redis", "max_requests", cfg.MaxRequests, "window", cfg.Window)
		}
		return limiter, func() {}, nil
	}

	store := ratelimit.NewMemoryStore(ratelimit.MemoryStoreOptions{})
	stop := store.StartCleanup(cfg.CleanupInterval, cfg.Window)
	limiter, err := ratelimit.New(store, policy)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("build rate limiter: %w", err)
	}
	if logger != nil {
		logger.Info("rate limiting enabled", "store", "memory", "max_requests", cfg.MaxRequests, "window", cfg.Window)
	}
	return limiter, stop, nil
}

// NewServices wires repositories, adapters and domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	observability := buildObservability(logger, appCfg.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient)

	bus := domainjob.NewBus()

	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repo:    repos.JobRepo,
		Bus:     bus,
		Logger:  logger,
		Metrics: observability.MetricsSink,
	})

	validations, err := buildValidationService(validationServiceDeps{
		Repos:         repos,
		Config:        appCfg,
		Logger:        logger,
		Observability: observability,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	limiter, stopCleanup, err := buildLimiter(appCfg.HTTP.RateLimit, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Jobs:               jobs,
		Validations:        validations,
		Bus:                bus,
		Limiter:            limiter,
		Resolver:           ports.HeaderRequesterResolver{Header: appCfg.HTTP.RequesterHeader},
		Cache:              repos.CacheRepo,
		Observability:      observability,
		stopLimiterCleanup: stopCleanup,
	}, nil
}

type validationServiceDeps struct {
	Repos         *serviceRepositories
	Config        *config.AppConfig
	Logger        *slog.Logger
	Observability ObservabilityContainer
}

func buildValidationService(deps validationServiceDeps) (*service.ValidationService, error) {
	if deps.Config.Validation.MarketplaceBaseURL == "" {
		// Reaper-only deployments never start a pipeline.
		return nil, nil
	}

	client, err := marketplace.NewClient(marketplace.ClientOptions{
		BaseURL:    deps.Config.Validation.MarketplaceBaseURL,
		ServiceKey: deps.Config.Validation.MarketplaceServiceKey,
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build marketplace client: %w", err)
	}

	opts := service.ValidationServiceOptions{
		Sessions:        deps.Repos.SessionRepo,
		Reports:         deps.Repos.ReportRepo,
		Tokens:          client,
		Analyzer:        client,
		Destructive:     client,
		Integrity:       client,
		Logger:          deps.Logger,
		Metrics:         deps.Observability.MetricsSink,
		PipelineTimeout: deps.Config.Validation.PipelineTimeout,
		ReportCacheTTL:  deps.Config.Cache.ReportTTL,
	}
	if deps.Repos.CacheRepo != nil {
		opts.Cache = deps.Repos.CacheRepo
	}

	svc, err := service.NewValidationService(opts)
	if err != nil {
		return nil, fmt.Errorf("build validation service: %w", err)
	}
	return svc, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		DB:       deps.cfg.DB,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var reaperCfg config.ReaperConfig
			if deps.cfg.Config != nil {
				reaperCfg = deps.cfg.Config.Reaper
			}
			reaper := service.MustNewReaperService(service.ReaperServiceOptions{
				Repo:    data.NewReaperRepo(deps.cfg.DB, data.RepoConfig{}),
				Config:  reaperCfg,
				Logger:  deps.logger,
				Metrics: deps.cfg.Services.Observability.MetricsSink,
			})
			return reaper.Run(ctx)
		},
	}
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}
	return handles
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, []backgroundService{
			newReaperBackgroundService(deps),
		}),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		services:    cfg.Services,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	services    ServiceContainer
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		// The service context is already cancelled; the shutdown deadline
		// needs its own parent.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context:  shutdownCtx,
			Server:   cfg.httpServer,
			Services: cfg.services,
			Logger:   cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Let in-flight validation pipelines write their terminal state.
	if cfg.services.Validations != nil {
		cfg.services.Validations.Wait()
	}

	if cfg.services.Bus != nil {
		cfg.services.Bus.Close()
	}
	if cfg.services.stopLimiterCleanup != nil {
		cfg.services.stopLimiterCleanup()
	}
	if err := cfg.services.Observability.MetricsSink.Close(); err != nil {
		cfg.logger.Warn("failed to close metrics sink", "error", err)
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
