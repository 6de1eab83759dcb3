package service

import (
	"fmt"
	"testing"
	"time"

	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_CountsTowardPlanCap(t *testing.T) {
	svc, subs, _, _, node := newTestServices(t)
	ctx := userContext(node.Generate())

	_, err := subs.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan:         subscriptiondomain.PlanStarter,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
			Product: orderdomain.ProductInfo{
				Name:         fmt.Sprintf("item-%d", i),
				Quantity:     1,
				SellingPrice: 1,
			},
		})
		require.NoError(t, err)
	}

	check, err := subs.CheckLimit(ctx, subscriptiondomain.MetricMaxOrders)
	require.NoError(t, err)
	assert.Equal(t, 50, check.Current)
	assert.False(t, check.Allowed)

	_, err = svc.Create(ctx, orderdomain.CreateOrderRequest{
		Product: orderdomain.ProductInfo{Name: "one too many", Quantity: 1, SellingPrice: 1},
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrLimitExceeded)

	resp, err := svc.List(ctx, orderdomain.ListOrderRequest{PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 50)
}

func TestCreateOrder_WithoutSubscriptionIsUnmetered(t *testing.T) {
	svc, _, _, _, node := newTestServices(t)
	ctx := userContext(node.Generate())

	_, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
		Product: orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 1},
	})
	require.NoError(t, err)
}

func TestCreateOrder_RejectsDuplicateSourceMessage(t *testing.T) {
	svc, _, _, _, node := newTestServices(t)
	ctx := userContext(node.Generate())

	first, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
		SourceMessageID: "wamid.123",
		Product:         orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	require.NoError(t, err)

	// redelivered webhook payload for the same chat message
	_, err = svc.Create(ctx, orderdomain.CreateOrderRequest{
		SourceMessageID: "wamid.123",
		Product:         orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	assert.ErrorIs(t, err, orderdomain.ErrDuplicateSourceMessage)

	other, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
		SourceMessageID: "wamid.456",
		Product:         orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateOrder_SameSourceMessageAcrossUsers(t *testing.T) {
	svc, _, _, _, node := newTestServices(t)

	_, err := svc.Create(userContext(node.Generate()), orderdomain.CreateOrderRequest{
		SourceMessageID: "wamid.789",
		Product:         orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	require.NoError(t, err)

	_, err = svc.Create(userContext(node.Generate()), orderdomain.CreateOrderRequest{
		SourceMessageID: "wamid.789",
		Product:         orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	require.NoError(t, err)
}

func TestOrderTimestamps_FollowInjectedClock(t *testing.T) {
	svc, _, fc, _, node := newTestServices(t)
	ctx := userContext(node.Generate())

	createdAt := fc.Now()
	order, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
		Product: orderdomain.ProductInfo{Name: "soap", Quantity: 1, SellingPrice: 5},
	})
	require.NoError(t, err)

	fc.Advance(3 * time.Hour)
	_, err = svc.Transition(ctx, orderdomain.TransitionRequest{
		OrderID:      order.ID.String(),
		TargetStatus: orderdomain.OrderStatusConfirmed,
	})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, order.ID.String())
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(createdAt), "created_at %v, want %v", got.CreatedAt, createdAt)
	assert.True(t, got.UpdatedAt.Equal(fc.Now()), "updated_at %v, want %v", got.UpdatedAt, fc.Now())
}
