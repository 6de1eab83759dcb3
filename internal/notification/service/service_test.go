package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/notification/repository"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	subscriptionrepo "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/repository"
	subscriptionservice "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/service"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, subscriptiondomain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Notification{},
		&domain.UserPreferences{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  subscriptionrepo.Provide(),
	})
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.Provide(),
		Subs:  subs,
	})

	ctx := userctx.WithUserID(context.Background(), int64(node.Generate()))
	return svc, subs, ctx
}

func TestCreate_UsesTypeDefaults(t *testing.T) {
	svc, _, ctx := newTestService(t)

	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeNewOrder,
		Title: "New order from Ada",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
	assert.ElementsMatch(t, []domain.Channel{domain.ChannelInApp, domain.ChannelPush}, []domain.Channel(n.Channels))
	assert.False(t, n.Read)
}

func TestCreate_SuppressedByPreference(t *testing.T) {
	svc, _, ctx := newTestService(t)

	off := false
	_, err := svc.UpdatePreferences(ctx, domain.PreferenceMap{
		domain.TypeNewOrder: {Enabled: &off},
	})
	require.NoError(t, err)

	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeNewOrder,
		Title: "New order from Ada",
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	resp, err := svc.List(ctx, domain.ListNotificationRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
}

func TestCreate_LowInventoryGatesOnThreshold(t *testing.T) {
	svc, _, ctx := newTestService(t)

	on := true
	threshold := 10.0
	_, err := svc.UpdatePreferences(ctx, domain.PreferenceMap{
		domain.TypeLowInventory: {Enabled: &on, Threshold: &threshold},
	})
	require.NoError(t, err)

	// above the threshold nothing fires
	stock := 12.0
	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeLowInventory,
		Title: "Stock running low",
		Stock: &stock,
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	stock = 10.0
	n, err = svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeLowInventory,
		Title: "Stock running low",
		Stock: &stock,
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, domain.TypeLowInventory, n.Type)
}

func TestCreate_ProfitAlertDisabledByDefault(t *testing.T) {
	svc, _, ctx := newTestService(t)

	margin := 4.5
	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:   domain.TypeProfitAlert,
		Title:  "Margin dropped",
		Margin: &margin,
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	on := true
	_, err = svc.UpdatePreferences(ctx, domain.PreferenceMap{
		domain.TypeProfitAlert: {Enabled: &on},
	})
	require.NoError(t, err)

	n, err = svc.Create(ctx, domain.CreateNotificationRequest{
		Type:   domain.TypeProfitAlert,
		Title:  "Margin dropped",
		Margin: &margin,
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, domain.PriorityLow, n.Priority)
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.NotificationType("smoke_signal"),
		Title: "??",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownType)

	_, err = svc.UpdatePreferences(ctx, domain.PreferenceMap{
		domain.NotificationType("smoke_signal"): {},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownType)
}

func TestCreate_DroppedAtPlanCap(t *testing.T) {
	svc, subs, ctx := newTestService(t)

	_, err := subs.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan:         subscriptiondomain.PlanStarter,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	limits := subscriptiondomain.LimitsFor(subscriptiondomain.PlanStarter)
	for i := 0; i < limits.MaxNotifications; i++ {
		require.NoError(t, subs.IncrementUsage(ctx, subscriptiondomain.MetricMaxNotifications))
	}

	// the cap drops the event instead of failing the caller
	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeNewOrder,
		Title: "New order from Ada",
	})
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestMarkRead(t *testing.T) {
	svc, _, ctx := newTestService(t)

	n, err := svc.Create(ctx, domain.CreateNotificationRequest{
		Type:  domain.TypeNewOrder,
		Title: "New order from Ada",
	})
	require.NoError(t, err)
	require.NotNil(t, n)

	require.NoError(t, svc.MarkRead(ctx, n.ID.String()))
	// idempotent
	require.NoError(t, svc.MarkRead(ctx, n.ID.String()))

	err = svc.MarkRead(ctx, "123456789")
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)

	resp, err := svc.List(ctx, domain.ListNotificationRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
}

func TestMarkAllRead_ReturnsAffectedCount(t *testing.T) {
	svc, _, ctx := newTestService(t)

	for _, title := range []string{"one", "two", "three"} {
		n, err := svc.Create(ctx, domain.CreateNotificationRequest{
			Type:  domain.TypeNewOrder,
			Title: title,
		})
		require.NoError(t, err)
		require.NotNil(t, n)
	}

	count, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = svc.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
