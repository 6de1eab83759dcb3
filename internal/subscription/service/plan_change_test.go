package service

import (
	"testing"
	"time"

	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePlanChange_QuotesFromStaticTable(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	quote, err := svc.CalculatePlanChange(ctx, subscriptiondomain.ChangePlanRequest{
		TargetPlan:   subscriptiondomain.PlanProfessional,
		BillingCycle: subscriptiondomain.BillingCycleYearly,
	})
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.PlanAmount(subscriptiondomain.PlanProfessional, subscriptiondomain.BillingCycleYearly), quote.Amount)
	assert.Equal(t, 500, quote.Limits.MaxOrders)

	// quoting never mutates the row
	sub, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.PlanStarter, sub.Plan)
}

func TestCalculatePlanChange_RejectsUnknownPlan(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)

	_, err := svc.CalculatePlanChange(ctx, subscriptiondomain.ChangePlanRequest{
		TargetPlan: subscriptiondomain.Plan("enterprise"),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidPlan)
}

func TestChangePlan_SwapsLimitsKeepsCounters(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	for i := 0; i < 7; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders))
	}

	sub, err := svc.ChangePlan(ctx, subscriptiondomain.ChangePlanRequest{
		TargetPlan:   subscriptiondomain.PlanBusiness,
		BillingCycle: subscriptiondomain.BillingCycleMonthly,
	})
	require.NoError(t, err)

	assert.Equal(t, subscriptiondomain.PlanBusiness, sub.Plan)
	assert.Equal(t, -1, sub.UsageLimits.Data().MaxOrders)
	assert.Equal(t, 7, sub.CurrentUsage.Data().Orders)
	assert.Equal(t, subscriptiondomain.PlanAmount(subscriptiondomain.PlanBusiness, subscriptiondomain.BillingCycleMonthly), sub.Amount)
}

func TestChangePlan_RejectedWhenCancelled(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	_, err := svc.Cancel(ctx)
	require.NoError(t, err)

	_, err = svc.ChangePlan(ctx, subscriptiondomain.ChangePlanRequest{
		TargetPlan: subscriptiondomain.PlanProfessional,
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionCancelled)
}

func TestCreate_SecondSubscriptionRejected(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := userContext(userID)
	mustSubscribe(t, svc, ctx, subscriptiondomain.PlanStarter)

	_, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		Plan: subscriptiondomain.PlanProfessional,
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionExists)
}

func TestProcessTrialExpirations(t *testing.T) {
	svc, fc, userID := newTestService(t)

	withCard := userContext(userID)
	withoutCard := userContext(userID + 1)

	_, err := svc.Create(withCard, subscriptiondomain.CreateSubscriptionRequest{
		Plan:      subscriptiondomain.PlanStarter,
		WithTrial: true,
	})
	require.NoError(t, err)
	_, err = svc.AddPaymentMethod(withCard, subscriptiondomain.AddPaymentMethodRequest{Type: "card", Last4: "4242"})
	require.NoError(t, err)

	_, err = svc.Create(withoutCard, subscriptiondomain.CreateSubscriptionRequest{
		Plan:      subscriptiondomain.PlanStarter,
		WithTrial: true,
	})
	require.NoError(t, err)

	fc.Advance(time.Duration(subscriptiondomain.TrialDays+1) * 24 * time.Hour)

	result, err := svc.ProcessTrialExpirations(withCard, fc.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Activated)
	assert.Equal(t, 1, result.PastDue)

	sub, err := svc.Get(withCard)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusActive, sub.Status)

	sub, err = svc.Get(withoutCard)
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusPastDue, sub.Status)

	// settled trials never reappear in the sweep
	again, err := svc.ProcessTrialExpirations(withCard, fc.Now())
	require.NoError(t, err)
	assert.Zero(t, again.Activated)
	assert.Zero(t, again.PastDue)
}
