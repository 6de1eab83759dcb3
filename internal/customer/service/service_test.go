package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer/repository"
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
	require.NoError(t, db.AutoMigrate(&domain.Customer{}, &subscriptiondomain.Subscription{}))

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
	svc := New(Params{
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

func TestCreateCustomer_SlugsHandle(t *testing.T) {
	svc, _, ctx := newTestService(t)

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "Mama Nkechi Stores",
		Contact:  "+2348012345678",
		Platform: domain.PlatformWhatsApp,
	})
	require.NoError(t, err)
	assert.Equal(t, "mama-nkechi-stores", customer.Handle)

	// same name gets a suffixed handle
	second, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "Mama Nkechi Stores",
		Contact:  "+2348098765432",
		Platform: domain.PlatformInstagram,
	})
	require.NoError(t, err)
	assert.Equal(t, "mama-nkechi-stores-2", second.Handle)

	got, err := svc.GetByHandle(ctx, "mama-nkechi-stores-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestCreateCustomer_Validation(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Contact: "+234", Platform: domain.PlatformWhatsApp})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Ada", Platform: domain.PlatformWhatsApp})
	assert.ErrorIs(t, err, domain.ErrInvalidContact)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Ada", Contact: "+234", Platform: domain.Platform("telegram")})
	assert.ErrorIs(t, err, domain.ErrInvalidPlatform)
}

func TestCreateCustomer_ConsumesPlanQuota(t *testing.T) {
	svc, subs, ctx := newTestService(t)

	_, err := subs.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan:         subscriptiondomain.PlanStarter,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "Ada",
		Contact:  "+2348012345678",
		Platform: domain.PlatformWhatsApp,
	})
	require.NoError(t, err)

	check, err := subs.CheckLimit(ctx, subscriptiondomain.MetricMaxCustomers)
	require.NoError(t, err)
	assert.Equal(t, 1, check.Current)
}

func TestUpdateAndDeleteCustomer(t *testing.T) {
	svc, _, ctx := newTestService(t)

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "Ada",
		Contact:  "+2348012345678",
		Platform: domain.PlatformWhatsApp,
	})
	require.NoError(t, err)

	notes := "prefers evening delivery"
	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{
		CustomerID: customer.ID.String(),
		Notes:      &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	require.NoError(t, svc.Delete(ctx, customer.ID.String()))

	_, err = svc.GetByID(ctx, customer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
