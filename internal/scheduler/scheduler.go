package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	obsmetrics "github.com/eoladapo/sellmate-backend-sub002/internal/observability/metrics"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	OrderSvc        orderdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	AnalyticsSvc    analyticsdomain.Service
	NotificationSvc notificationdomain.Service
	GenID           *snowflake.Node
	Clock           clock.Clock
	Config          Config `optional:"true"`
}

type Scheduler struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             Config
	genID           *snowflake.Node
	clock           clock.Clock
	orderSvc        orderdomain.Service
	subscriptionSvc subscriptiondomain.Service
	analyticsSvc    analyticsdomain.Service
	notificationSvc notificationdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.OrderSvc == nil || p.SubscriptionSvc == nil || p.AnalyticsSvc == nil || p.NotificationSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:              p.DB,
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		genID:           p.GenID,
		clock:           p.Clock,
		orderSvc:        p.OrderSvc,
		subscriptionSvc: p.SubscriptionSvc,
		analyticsSvc:    p.AnalyticsSvc,
		notificationSvc: p.NotificationSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick picks up where this left off
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"expire_orders", func(ctx context.Context) error {
			return s.runJob(ctx, "expire_orders", s.cfg.JobTimeout, s.ExpireOrdersJob)
		}},
		{"trial_expirations", func(ctx context.Context) error {
			return s.runJob(ctx, "trial_expirations", s.cfg.JobTimeout, s.TrialExpirationsJob)
		}},
		{"reset_usage", func(ctx context.Context) error {
			return s.runJob(ctx, "reset_usage", s.cfg.JobTimeout, s.ResetUsageJob)
		}},
		{"metrics_rollup", func(ctx context.Context) error {
			return s.runJob(ctx, "metrics_rollup", 5*time.Minute, s.MetricsRollupJob)
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty EnabledJobs runs every job (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ExpireOrdersJob sweeps every user's overdue active orders into expired and
// raises an order_expired notification per affected user.
func (s *Scheduler) ExpireOrdersJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "expire_orders", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	now := s.clock.Now()

	result, err := s.orderSvc.ProcessExpiredOrders(ctx, now)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.expire_orders.failed", "expire_orders", err)
		return err
	}
	run.AddProcessed(int(result.Expired))
	if result.Expired == 0 {
		return nil
	}

	s.notifyExpiredOrders(ctx, run, now)
	return nil
}

// notifyExpiredOrders fans one notification out per user whose orders just
// expired. Notification failures are logged, never fatal for the sweep.
func (s *Scheduler) notifyExpiredOrders(ctx context.Context, run *jobRun, now time.Time) {
	userIDs, err := s.orderSvc.ListRecentlyExpiredUserIDs(ctx, now)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.expire_orders.notify_failed", "expire_orders", err)
		return
	}
	for _, userID := range userIDs {
		userCtx := userctx.WithUserID(ctx, int64(userID))
		_, err := s.notificationSvc.Create(userCtx, notificationdomain.CreateNotificationRequest{
			Type:  notificationdomain.TypeOrderExpired,
			Title: "Orders expired",
			Body:  "Some of your open orders passed their deadline and were marked expired.",
		})
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.expire_orders.notify_failed", "expire_orders", err,
				zap.String("user_id", userID.String()),
			)
		}
	}
}

// TrialExpirationsJob settles lapsed trials into active or past_due.
func (s *Scheduler) TrialExpirationsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "trial_expirations", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	result, err := s.subscriptionSvc.ProcessTrialExpirations(ctx, s.clock.Now())
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.trial_expirations.failed", "trial_expirations", err)
		return err
	}
	run.AddProcessed(result.Activated + result.PastDue)
	return nil
}

// ResetUsageJob zeroes usage counters for subscriptions whose billing period
// rolled over.
func (s *Scheduler) ResetUsageJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "reset_usage", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	count, err := s.subscriptionSvc.ResetDueUsage(ctx, s.clock.Now())
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.reset_usage.failed", "reset_usage", err)
		return err
	}
	run.AddProcessed(count)
	return nil
}

// MetricsRollupJob rebuilds the current month's business metrics for every
// active subscriber.
func (s *Scheduler) MetricsRollupJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "metrics_rollup", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	count, err := s.analyticsSvc.RecomputeAll(ctx, s.clock.Now())
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.metrics_rollup.failed", "metrics_rollup", err)
		return err
	}
	run.AddProcessed(count)
	return nil
}
