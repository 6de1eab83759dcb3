package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	customerdomain "github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         analyticsdomain.Repository
	orderRepo    orderdomain.Repository
	customerRepo customerdomain.Repository
	subRepo      subscriptiondomain.Repository
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         analyticsdomain.Repository
	OrderRepo    orderdomain.Repository
	CustomerRepo customerdomain.Repository
	SubRepo      subscriptiondomain.Repository
}

func NewService(p ServiceParam) analyticsdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("analytics.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		orderRepo:    p.OrderRepo,
		customerRepo: p.CustomerRepo,
		subRepo:      p.SubRepo,
	}
}

func (s *Service) GetCurrentPeriod(ctx context.Context) (analyticsdomain.BusinessMetrics, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return analyticsdomain.BusinessMetrics{}, analyticsdomain.ErrInvalidUser
	}

	start, end := monthBounds(s.clock.Now())
	existing, err := s.repo.FindPeriod(ctx, s.db, userID, start)
	if err != nil {
		return analyticsdomain.BusinessMetrics{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	return s.Recompute(ctx, userID, start, end)
}

func (s *Service) List(ctx context.Context, req analyticsdomain.ListMetricsRequest) (analyticsdomain.ListMetricsResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return analyticsdomain.ListMetricsResponse{}, analyticsdomain.ErrInvalidUser
	}

	rows, err := s.repo.ListByUser(ctx, s.db, userID, int(req.Limit))
	if err != nil {
		return analyticsdomain.ListMetricsResponse{}, err
	}

	metrics := make([]analyticsdomain.BusinessMetrics, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, *row)
	}
	return analyticsdomain.ListMetricsResponse{Metrics: metrics}, nil
}

func (s *Service) Recompute(ctx context.Context, userID snowflake.ID, periodStart, periodEnd time.Time) (analyticsdomain.BusinessMetrics, error) {
	orderCount, err := s.orderRepo.CountCompletedInPeriod(ctx, s.db, userID, periodStart, periodEnd)
	if err != nil {
		return analyticsdomain.BusinessMetrics{}, err
	}
	revenue, profit, err := s.orderRepo.SumCompletedInPeriod(ctx, s.db, userID, periodStart, periodEnd)
	if err != nil {
		return analyticsdomain.BusinessMetrics{}, err
	}
	customerCount, err := s.customerRepo.CountByUser(ctx, s.db, userID)
	if err != nil {
		return analyticsdomain.BusinessMetrics{}, err
	}

	metrics := analyticsdomain.BusinessMetrics{
		ID:            s.genID.Generate(),
		UserID:        userID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalRevenue:  revenue,
		TotalProfit:   profit,
		OrderCount:    orderCount,
		CustomerCount: customerCount,
		ComputedAt:    s.clock.Now(),
	}
	if err := s.repo.Upsert(ctx, s.db, &metrics); err != nil {
		return analyticsdomain.BusinessMetrics{}, err
	}
	return metrics, nil
}

func (s *Service) RecomputeAll(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.subRepo.ListActiveUserIDs(ctx, s.db)
	if err != nil {
		return 0, err
	}

	start, end := monthBounds(now)
	count := 0
	for _, userID := range userIDs {
		if _, err := s.Recompute(ctx, userID, start, end); err != nil {
			// one bad rollup must not starve the rest
			s.log.Warn("metrics rollup failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		count++
	}
	return count, nil
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
