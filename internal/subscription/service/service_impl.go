package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability/metrics"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    subscriptiondomain.Repository
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    subscriptiondomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidUser
	}
	if !req.Plan.Valid() {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidPlan
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = subscriptiondomain.BillingCycleMonthly
	}
	if !cycle.Valid() {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidBillingCycle
	}

	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if existing != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionExists
	}

	now := s.clock.Now()
	sub := subscriptiondomain.Subscription{
		ID:                 s.genID.Generate(),
		UserID:             userID,
		Plan:               req.Plan,
		Status:             subscriptiondomain.SubscriptionStatusActive,
		BillingCycle:       cycle,
		Amount:             subscriptiondomain.PlanAmount(req.Plan, cycle),
		Currency:           subscriptiondomain.DefaultCurrency,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd(now, cycle),
		UsageLimits:        datatypes.NewJSONType(subscriptiondomain.LimitsFor(req.Plan)),
		CurrentUsage:       datatypes.NewJSONType(subscriptiondomain.UsageCounters{LastResetDate: now}),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.WithTrial {
		trialEnd := now.AddDate(0, 0, subscriptiondomain.TrialDays)
		sub.Status = subscriptiondomain.SubscriptionStatusTrial
		sub.TrialEnd = &trialEnd
	}

	if err := s.repo.Insert(ctx, s.db, &sub); err != nil {
		// the unique user_id index catches a concurrent create that raced
		// past the existence check
		if db.IsDuplicateKeyErr(err) {
			return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionExists
		}
		return subscriptiondomain.Subscription{}, err
	}

	s.log.Info("subscription created",
		zap.String("user_id", userID.String()),
		zap.String("plan", string(sub.Plan)),
		zap.String("status", string(sub.Status)),
	)
	return sub, nil
}

func (s *Service) Get(ctx context.Context) (subscriptiondomain.Subscription, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidUser
	}

	sub, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if sub == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *sub, nil
}

func (s *Service) CalculatePlanChange(ctx context.Context, req subscriptiondomain.ChangePlanRequest) (subscriptiondomain.PlanChangeQuote, error) {
	if !req.TargetPlan.Valid() {
		return subscriptiondomain.PlanChangeQuote{}, subscriptiondomain.ErrInvalidPlan
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = subscriptiondomain.BillingCycleMonthly
	}
	if !cycle.Valid() {
		return subscriptiondomain.PlanChangeQuote{}, subscriptiondomain.ErrInvalidBillingCycle
	}

	return subscriptiondomain.PlanChangeQuote{
		Plan:         req.TargetPlan,
		BillingCycle: cycle,
		Amount:       subscriptiondomain.PlanAmount(req.TargetPlan, cycle),
		Currency:     subscriptiondomain.DefaultCurrency,
		Limits:       subscriptiondomain.LimitsFor(req.TargetPlan),
	}, nil
}

func (s *Service) ChangePlan(ctx context.Context, req subscriptiondomain.ChangePlanRequest) (subscriptiondomain.Subscription, error) {
	quote, err := s.CalculatePlanChange(ctx, req)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	var updated subscriptiondomain.Subscription
	err = s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		if sub.Status == subscriptiondomain.SubscriptionStatusCancelled {
			return subscriptiondomain.ErrSubscriptionCancelled
		}

		// limits always mirror the static table for the plan; counters carry
		// over untouched
		sub.Plan = quote.Plan
		sub.BillingCycle = quote.BillingCycle
		sub.Amount = quote.Amount
		sub.UsageLimits = datatypes.NewJSONType(quote.Limits)
		sub.UpdatedAt = s.clock.Now()

		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}

		s.log.Info("plan changed",
			zap.String("user_id", sub.UserID.String()),
			zap.String("plan", string(sub.Plan)),
			zap.String("billing_cycle", string(sub.BillingCycle)),
		)
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context) (subscriptiondomain.Subscription, error) {
	var updated subscriptiondomain.Subscription
	err := s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		if sub.Status == subscriptiondomain.SubscriptionStatusCancelled {
			updated = *sub
			return nil
		}
		sub.Status = subscriptiondomain.SubscriptionStatusCancelled
		sub.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return updated, nil
}

func (s *Service) CheckLimit(ctx context.Context, metric subscriptiondomain.UsageMetric) (subscriptiondomain.LimitCheck, error) {
	if !validMetric(metric) {
		return subscriptiondomain.LimitCheck{}, subscriptiondomain.ErrInvalidMetric
	}

	sub, err := s.Get(ctx)
	if err != nil {
		return subscriptiondomain.LimitCheck{}, err
	}

	limits := sub.UsageLimits.Data()
	current := sub.CurrentUsage.Data().Value(metric)
	return subscriptiondomain.LimitCheck{
		Metric:  metric,
		Allowed: subscriptiondomain.CheckLimit(limits, metric, current),
		Limit:   limits.Limit(metric),
		Current: current,
	}, nil
}

func (s *Service) IncrementUsage(ctx context.Context, metric subscriptiondomain.UsageMetric) error {
	if !validMetric(metric) {
		return subscriptiondomain.ErrInvalidMetric
	}

	return s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		limits := sub.UsageLimits.Data()
		counters := sub.CurrentUsage.Data()

		if !subscriptiondomain.CheckLimit(limits, metric, counters.Value(metric)) {
			if s.metrics != nil {
				s.metrics.RecordLimitDenied(ctx, string(metric))
			}
			return subscriptiondomain.ErrLimitExceeded
		}

		counters.Add(metric, 1)
		sub.CurrentUsage = datatypes.NewJSONType(counters)
		sub.UpdatedAt = s.clock.Now()
		return s.repo.Save(ctx, tx, sub)
	})
}

func (s *Service) ResetUsageIfPeriodEnded(ctx context.Context, now time.Time) (subscriptiondomain.Subscription, bool, error) {
	var (
		updated subscriptiondomain.Subscription
		reset   bool
	)
	err := s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		reset = resetIfDue(sub, now)
		if !reset {
			updated = *sub
			return nil
		}
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, false, err
	}
	return updated, reset, nil
}

func (s *Service) AddPaymentMethod(ctx context.Context, req subscriptiondomain.AddPaymentMethodRequest) (subscriptiondomain.Subscription, error) {
	var updated subscriptiondomain.Subscription
	err := s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		method := subscriptiondomain.PaymentMethod{
			ID:       uuid.NewString(),
			Type:     req.Type,
			Last4:    req.Last4,
			Provider: req.Provider,
		}
		// the first method always becomes the default
		makeDefault := req.MakeDefault || len(sub.PaymentMethods) == 0
		methods := append([]subscriptiondomain.PaymentMethod{}, sub.PaymentMethods...)
		if makeDefault {
			for i := range methods {
				methods[i].IsDefault = false
			}
			method.IsDefault = true
		}
		methods = append(methods, method)

		sub.PaymentMethods = methods
		sub.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return updated, nil
}

func (s *Service) SetDefaultPaymentMethod(ctx context.Context, methodID string) (subscriptiondomain.Subscription, error) {
	var updated subscriptiondomain.Subscription
	err := s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		methods := append([]subscriptiondomain.PaymentMethod{}, sub.PaymentMethods...)
		found := false
		// one rewrite of the whole list keeps the at-most-one invariant
		for i := range methods {
			match := methods[i].ID == methodID
			methods[i].IsDefault = match
			if match {
				found = true
			}
		}
		if !found {
			return subscriptiondomain.ErrPaymentMethodNotFound
		}

		sub.PaymentMethods = methods
		sub.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return updated, nil
}

func (s *Service) RemovePaymentMethod(ctx context.Context, methodID string) (subscriptiondomain.Subscription, error) {
	var updated subscriptiondomain.Subscription
	err := s.withLockedSubscription(ctx, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		methods := make([]subscriptiondomain.PaymentMethod, 0, len(sub.PaymentMethods))
		found := false
		for _, m := range sub.PaymentMethods {
			if m.ID == methodID {
				found = true
				continue
			}
			methods = append(methods, m)
		}
		if !found {
			return subscriptiondomain.ErrPaymentMethodNotFound
		}

		sub.PaymentMethods = methods
		sub.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	return updated, nil
}

func (s *Service) ProcessTrialExpirations(ctx context.Context, now time.Time) (subscriptiondomain.TrialSweepResult, error) {
	due, err := s.repo.ListTrialsDue(ctx, s.db, now.UTC())
	if err != nil {
		return subscriptiondomain.TrialSweepResult{}, err
	}

	var result subscriptiondomain.TrialSweepResult
	for _, sub := range due {
		activated := sub.DefaultPaymentMethod() != nil
		if activated {
			sub.Status = subscriptiondomain.SubscriptionStatusActive
		} else {
			sub.Status = subscriptiondomain.SubscriptionStatusPastDue
		}
		sub.UpdatedAt = now.UTC()

		if err := s.repo.Save(ctx, s.db, sub); err != nil {
			// keep sweeping the remaining rows
			s.log.Warn("trial settlement failed",
				zap.String("user_id", sub.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		if activated {
			result.Activated++
		} else {
			result.PastDue++
		}
	}
	return result, nil
}

func (s *Service) ResetDueUsage(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListPeriodsDue(ctx, s.db, now.UTC())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sub := range due {
		if !resetIfDue(sub, now) {
			continue
		}
		if err := s.repo.Save(ctx, s.db, sub); err != nil {
			s.log.Warn("usage reset failed",
				zap.String("user_id", sub.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		count++
	}
	return count, nil
}

// resetIfDue zeroes the counters and rolls the billing period forward when
// now has crossed the period boundary. Monotonic: a period still covering
// now is left alone.
func resetIfDue(sub *subscriptiondomain.Subscription, now time.Time) bool {
	now = now.UTC()
	if now.Before(sub.CurrentPeriodEnd) {
		return false
	}

	start, end := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	for !end.After(now) {
		start = end
		end = periodEnd(end, sub.BillingCycle)
	}

	sub.CurrentPeriodStart = start
	sub.CurrentPeriodEnd = end
	sub.CurrentUsage = datatypes.NewJSONType(subscriptiondomain.UsageCounters{LastResetDate: now})
	sub.UpdatedAt = now
	return true
}

// withLockedSubscription runs fn against the caller's subscription row under
// a row lock in a single transaction.
func (s *Service) withLockedSubscription(ctx context.Context, fn func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return subscriptiondomain.ErrInvalidUser
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByUserIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		return fn(tx, sub)
	})
}

func periodEnd(start time.Time, cycle subscriptiondomain.BillingCycle) time.Time {
	if cycle == subscriptiondomain.BillingCycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func validMetric(metric subscriptiondomain.UsageMetric) bool {
	switch metric {
	case subscriptiondomain.MetricMaxOrders,
		subscriptiondomain.MetricMaxConversations,
		subscriptiondomain.MetricMaxCustomers,
		subscriptiondomain.MetricMaxNotifications:
		return true
	}
	return false
}
