package service

import (
	"testing"

	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countDefaults(methods []subscriptiondomain.PaymentMethod) int {
	n := 0
	for _, m := range methods {
		if m.IsDefault {
			n++
		}
	}
	return n
}

func TestAddPaymentMethod_FirstBecomesDefault(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	sub, err := svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{
		Type:  "card",
		Last4: "4242",
	})
	require.NoError(t, err)
	require.Len(t, sub.PaymentMethods, 1)
	assert.True(t, sub.PaymentMethods[0].IsDefault)
	assert.NotEmpty(t, sub.PaymentMethods[0].ID)

	sub, err = svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{
		Type:  "bank_transfer",
		Last4: "0189",
	})
	require.NoError(t, err)
	require.Len(t, sub.PaymentMethods, 2)
	assert.Equal(t, 1, countDefaults(sub.PaymentMethods))
	assert.True(t, sub.PaymentMethods[0].IsDefault)
}

func TestSetDefaultPaymentMethod_ExactlyOneDefault(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	_, err := svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "card", Last4: "4242"})
	require.NoError(t, err)
	sub, err := svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "card", Last4: "1881"})
	require.NoError(t, err)
	sub, err = svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "bank_transfer", Last4: "0189"})
	require.NoError(t, err)

	target := sub.PaymentMethods[2].ID
	sub, err = svc.SetDefaultPaymentMethod(ctx, target)
	require.NoError(t, err)

	assert.Equal(t, 1, countDefaults(sub.PaymentMethods))
	def := sub.DefaultPaymentMethod()
	require.NotNil(t, def)
	assert.Equal(t, target, def.ID)
}

func TestSetDefaultPaymentMethod_UnknownID(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	_, err := svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "card", Last4: "4242"})
	require.NoError(t, err)

	_, err = svc.SetDefaultPaymentMethod(ctx, "nope")
	assert.ErrorIs(t, err, subscriptiondomain.ErrPaymentMethodNotFound)
}

func TestRemovePaymentMethod(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	sub, err := svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "card", Last4: "4242"})
	require.NoError(t, err)
	removable := sub.PaymentMethods[0].ID

	sub, err = svc.AddPaymentMethod(ctx, subscriptiondomain.AddPaymentMethodRequest{Type: "bank_transfer", Last4: "0189"})
	require.NoError(t, err)

	sub, err = svc.RemovePaymentMethod(ctx, removable)
	require.NoError(t, err)
	require.Len(t, sub.PaymentMethods, 1)
	assert.LessOrEqual(t, countDefaults(sub.PaymentMethods), 1)

	_, err = svc.RemovePaymentMethod(ctx, removable)
	assert.ErrorIs(t, err, subscriptiondomain.ErrPaymentMethodNotFound)
}
