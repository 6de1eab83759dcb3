package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	analyticsrepo "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	customerdomain "github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	customerrepo "github.com/eoladapo/sellmate-backend-sub002/internal/customer/repository"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	orderrepo "github.com/eoladapo/sellmate-backend-sub002/internal/order/repository"
	orderservice "github.com/eoladapo/sellmate-backend-sub002/internal/order/service"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	subscriptionrepo "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/repository"
	subscriptionservice "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/service"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	analytics analyticsdomain.Service
	orders    orderdomain.Service
	subs      subscriptiondomain.Service
	fc        *clock.FakeClock
	ctx       context.Context
	userID    snowflake.ID
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&customerdomain.Customer{},
		&subscriptiondomain.Subscription{},
		&analyticsdomain.BusinessMetrics{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: subscriptionrepo.Provide(),
	})
	orders := orderservice.NewService(orderservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: orderrepo.Provide(), Subs: subs,
	})
	analytics := NewService(ServiceParam{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fc,
		Repo:         analyticsrepo.Provide(),
		OrderRepo:    orderrepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		SubRepo:      subscriptionrepo.Provide(),
	})

	userID := node.Generate()
	return fixture{
		analytics: analytics,
		orders:    orders,
		subs:      subs,
		fc:        fc,
		ctx:       userctx.WithUserID(context.Background(), int64(userID)),
		userID:    userID,
	}
}

func completeOrder(t *testing.T, f fixture, sellingPrice, costPrice, quantity float64) {
	t.Helper()
	order, err := f.orders.Create(f.ctx, orderdomain.CreateOrderRequest{
		Product: orderdomain.ProductInfo{
			Name:         "item",
			Quantity:     quantity,
			SellingPrice: sellingPrice,
			CostPrice:    costPrice,
		},
	})
	require.NoError(t, err)
	for _, target := range []orderdomain.OrderStatus{
		orderdomain.OrderStatusConfirmed,
		orderdomain.OrderStatusProcessing,
		orderdomain.OrderStatusCompleted,
	} {
		_, err = f.orders.Transition(f.ctx, orderdomain.TransitionRequest{
			OrderID:      order.ID.String(),
			TargetStatus: target,
		})
		require.NoError(t, err)
	}
}

func TestGetCurrentPeriod_AggregatesCompletedOrders(t *testing.T) {
	f := newFixture(t)

	completeOrder(t, f, 100, 60, 10) // revenue 1000, profit 400
	completeOrder(t, f, 50, 20, 2)   // revenue 100, profit 60

	// drafts never count
	_, err := f.orders.Create(f.ctx, orderdomain.CreateOrderRequest{
		Product: orderdomain.ProductInfo{Name: "draft", Quantity: 1, SellingPrice: 999},
	})
	require.NoError(t, err)

	metrics, err := f.analytics.GetCurrentPeriod(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), metrics.OrderCount)
	assert.Equal(t, 1100.0, metrics.TotalRevenue)
	assert.Equal(t, 460.0, metrics.TotalProfit)
	assert.Equal(t, time.June, metrics.PeriodStart.Month())
}

func TestRecomputeAll_CoversActiveSubscribers(t *testing.T) {
	f := newFixture(t)

	_, err := f.subs.Create(f.ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan:         subscriptiondomain.PlanProfessional,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	completeOrder(t, f, 100, 60, 1)

	count, err := f.analytics.RecomputeAll(context.Background(), f.fc.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	metrics, err := f.analytics.GetCurrentPeriod(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.OrderCount)
	assert.Equal(t, 100.0, metrics.TotalRevenue)
}

func TestRecompute_ReplacesExistingSnapshot(t *testing.T) {
	f := newFixture(t)

	completeOrder(t, f, 100, 60, 1)
	first, err := f.analytics.GetCurrentPeriod(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.OrderCount)

	completeOrder(t, f, 100, 60, 1)
	start, end := first.PeriodStart, first.PeriodEnd
	second, err := f.analytics.Recompute(f.ctx, f.userID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.OrderCount)

	// still one row per period
	resp, err := f.analytics.List(f.ctx, analyticsdomain.ListMetricsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Metrics, 1)
}
