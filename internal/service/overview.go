package service

import (
	"context"

	"github.com/exotrack/exotrack-console/internal/domain"
	"github.com/exotrack/exotrack-console/internal/infra/cache"
	"github.com/exotrack/exotrack-console/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// recentActivityLimit caps the dashboard's activity feed.
const recentActivityLimit = 10

// OverviewService composes the per-resource services into the combined
// read views: the customer detail page and the admin dashboard. Dashboard
// results are cached so repeated renders within the TTL do not refetch.
type OverviewService struct {
	users        *UserService
	declarations *DeclarationService
	summaries    *cache.InMemory[*domain.DashboardSummary]
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewOverviewService creates the composed read-view service.
func NewOverviewService(users *UserService, declarations *DeclarationService, summaries *cache.InMemory[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger) *OverviewService {
	return &OverviewService{
		users:        users,
		declarations: declarations,
		summaries:    summaries,
		metrics:      metrics,
		logger:       logger,
	}
}

// Customer fetches a user record and their declarations concurrently.
// Either fetch failing fails the whole view.
func (s *OverviewService) Customer(ctx context.Context, userID string) (*domain.CustomerOverview, error) {
	ctx, span := tracer.Start(ctx, "OverviewService.Customer")
	defer span.End()

	var (
		user  *domain.User
		decls []domain.Declaration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FindOne(gctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		d, err := s.declarations.FindAllByUser(gctx, userID)
		if err != nil {
			return err
		}
		decls = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.CustomerOverview{User: user, Declarations: decls}, nil
}

// Dashboard fetches user stats, declaration stats and the recent-activity
// feed concurrently, serving from cache when a fresh summary exists.
func (s *OverviewService) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	ctx, span := tracer.Start(ctx, "OverviewService.Dashboard")
	defer span.End()

	if cached, ok := s.summaries.Get("dashboard"); ok {
		s.metrics.IncrCacheHit("stats")
		s.logger.Debug("dashboard summary served from cache")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("stats")

	summary := &domain.DashboardSummary{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.users.Stats(gctx)
		if err != nil {
			return err
		}
		summary.Users = *stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.declarations.Stats(gctx)
		if err != nil {
			return err
		}
		summary.Declarations = *stats
		return nil
	})
	g.Go(func() error {
		recent, err := s.declarations.RecentActivity(gctx, recentActivityLimit)
		if err != nil {
			return err
		}
		summary.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.summaries.Set("dashboard", summary)
	return summary, nil
}
