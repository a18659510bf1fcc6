package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/config"
	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/cache"
	"github.com/exotrack/exotrack-console/internal/infra/observability"
	"github.com/exotrack/exotrack-console/internal/infra/resilience"
	"github.com/exotrack/exotrack-console/internal/service"
	"github.com/exotrack/exotrack-console/internal/session"

	"go.uber.org/zap"
)

// app wires the whole client stack for one CLI invocation: config, logger,
// metrics, the API client, the per-resource services and the session store.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics

	client  *api.Client
	session *session.Store

	auth         *service.AuthService
	users        *service.UserService
	declarations *service.DeclarationService
	assets       *service.LineItemService
	incomes      *service.LineItemService
	liabilities  *service.LineItemService
	overview     *service.OverviewService

	shutdownTracer func(context.Context) error
}

func newApp() (*app, error) {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	// The CLI stays quiet unless asked: structured logs go to stderr only at
	// error level by default, full detail with --verbose.
	level := cfg.LogLevel
	if !flagVerbose && os.Getenv("LOG_LEVEL") == "" {
		level = "error"
	}
	logger := observability.NewLogger(level)

	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "exotrack-console")
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	metrics := observability.NewMetrics()

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("exotrack-api")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokens := session.NewTokenFile(cfg.TokenFile)
	client := api.NewClient(httpClient, cfg.APIBaseURL, tokens, cb, resilienceCfg, metrics, logger)

	authSvc := service.NewAuthService(client, logger)
	sess := session.NewStore(tokens, cfg.SessionFile, authSvc, logger)
	client.OnUnauthorized(sess.Invalidate)

	usersSvc := service.NewUserService(client, logger)
	declSvc := service.NewDeclarationService(client, logger)
	summaries := cache.New[*domain.DashboardSummary](cfg.CacheTTL)

	return &app{
		cfg:            cfg,
		logger:         logger,
		metrics:        metrics,
		client:         client,
		session:        sess,
		auth:           authSvc,
		users:          usersSvc,
		declarations:   declSvc,
		assets:         service.NewAssetService(client, logger),
		incomes:        service.NewIncomeService(client, logger),
		liabilities:    service.NewLiabilityService(client, logger),
		overview:       service.NewOverviewService(usersSvc, declSvc, summaries, metrics, logger),
		shutdownTracer: shutdown,
	}, nil
}

// close flushes telemetry. With --verbose it also prints the request
// snapshot for the invocation.
func (a *app) close() {
	if flagVerbose {
		snap := a.metrics.Snapshot()
		fmt.Fprintf(os.Stderr, "\nrequests: %.0f (%.0f ok, %.0f failed)  errors: network=%.0f auth=%.0f client=%.0f server=%.0f  cache hit rate: %.0f%%\n",
			snap.TotalRequests, snap.Succeeded, snap.Failed,
			snap.NetworkErrors, snap.AuthErrors, snap.ClientErrors, snap.ServerErrors,
			snap.CacheHitRate*100,
		)
	}
	_ = a.logger.Sync()
	_ = a.shutdownTracer(context.Background())
}

// requireAuth restores the session and fails when nobody is logged in.
func (a *app) requireAuth(ctx context.Context) error {
	if err := a.session.Initialize(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return errors.New("not logged in, run 'exotrack login' first")
	}
	return nil
}

// requireAdmin is requireAuth plus the admin role check.
func (a *app) requireAdmin(ctx context.Context) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	if !a.session.IsAdmin() {
		return errors.New("this command requires an admin session")
	}
	return nil
}

// itemService returns the line-item service for a collection name.
func (a *app) itemService(kind domain.ItemKind) *service.LineItemService {
	switch kind {
	case domain.KindIncome:
		return a.incomes
	case domain.KindLiability:
		return a.liabilities
	default:
		return a.assets
	}
}
