package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/subscription/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (subscriptiondomain.Service, *clock.FakeClock, snowflake.ID) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.Provide(),
	})
	return svc, fc, node.Generate()
}

func userContext(userID snowflake.ID) context.Context {
	return userctx.WithUserID(context.Background(), int64(userID))
}

func mustSubscribe(t *testing.T, svc subscriptiondomain.Service, ctx context.Context, plan subscriptiondomain.Plan) subscriptiondomain.Subscription {
	t.Helper()
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan:         plan,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)
	return sub
}

func TestCheckLimit_StarterCaps(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	check, err := svc.CheckLimit(ctx, subscriptiondomain.MetricMaxOrders)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, 50, check.Limit)
	assert.Equal(t, 0, check.Current)
}

func TestCheckLimit_BusinessAlwaysAllowed(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanBusiness)

	// unlimited sentinel keeps allowing well past any finite cap
	for i := 0; i < 600; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders))
	}

	check, err := svc.CheckLimit(ctx, subscriptiondomain.MetricMaxOrders)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, -1, check.Limit)
	assert.Equal(t, 600, check.Current)
}

func TestIncrementUsage_BlocksAtCap(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders))
	}

	err := svc.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders)
	assert.ErrorIs(t, err, subscriptiondomain.ErrLimitExceeded)

	check, err := svc.CheckLimit(ctx, subscriptiondomain.MetricMaxOrders)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 50, check.Current)
}

func TestIncrementUsage_UnknownMetric(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	err := svc.IncrementUsage(ctx, subscriptiondomain.UsageMetric("maxWidgets"))
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidMetric)
}

func TestResetUsageIfPeriodEnded(t *testing.T) {
	svc, fc, userID := newTestService(t)
	ctx := userContext(userID)
	created := mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	for i := 0; i < 10; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders))
	}

	// mid-period: nothing to do
	_, reset, err := svc.ResetUsageIfPeriodEnded(ctx, fc.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, reset)

	fc.Advance(32 * 24 * time.Hour)
	sub, reset, err := svc.ResetUsageIfPeriodEnded(ctx, fc.Now())
	require.NoError(t, err)
	assert.True(t, reset)
	assert.Equal(t, 0, sub.CurrentUsage.Data().Orders)
	assert.True(t, sub.CurrentPeriodEnd.After(fc.Now()))
	assert.True(t, sub.CurrentPeriodStart.After(created.CurrentPeriodStart))
	assert.Equal(t, fc.Now(), sub.CurrentUsage.Data().LastResetDate)

	// second call inside the new period is a no-op
	_, reset, err = svc.ResetUsageIfPeriodEnded(ctx, fc.Now())
	require.NoError(t, err)
	assert.False(t, reset)
}

func TestResetDueUsage_SweepsAllDueRows(t *testing.T) {
	svc, fc, userID := newTestService(t)

	first := userContext(userID)
	second := userContext(userID + 1)
	mustSubscribe(t, svc, first, subscriptiondomain.PlanStarter)
	mustSubscribe(t, svc, second, subscriptiondomain.PlanProfessional)

	require.NoError(t, svc.IncrementUsage(first, subscriptiondomain.MetricMaxCustomers))

	fc.Advance(40 * 24 * time.Hour)
	count, err := svc.ResetDueUsage(context.Background(), fc.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sub, err := svc.Get(first)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.CurrentUsage.Data().Customers)
}
