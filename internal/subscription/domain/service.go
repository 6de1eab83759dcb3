package domain

import (
	"context"
	"errors"
	"time"
)

type CreateSubscriptionRequest struct {
	Plan         Plan         `json:"plan"`
	BillingCycle BillingCycle `json:"billing_cycle"`
	// WithTrial starts the subscription in trial for TrialDays.
	WithTrial bool `json:"with_trial,omitempty"`
}

type ChangePlanRequest struct {
	TargetPlan   Plan         `json:"plan"`
	BillingCycle BillingCycle `json:"billing_cycle"`
}

// PlanChangeQuote is the dry-run result of a plan change.
type PlanChangeQuote struct {
	Plan         Plan         `json:"plan"`
	BillingCycle BillingCycle `json:"billing_cycle"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	Limits       UsageLimits  `json:"limits"`
}

type AddPaymentMethodRequest struct {
	Type     string `json:"type"`
	Last4    string `json:"last4,omitempty"`
	Provider string `json:"provider,omitempty"`
	// MakeDefault promotes the new method, demoting any current default.
	MakeDefault bool `json:"make_default,omitempty"`
}

type LimitCheck struct {
	Metric  UsageMetric `json:"metric"`
	Allowed bool        `json:"allowed"`
	Limit   int         `json:"limit"`
	Current int         `json:"current"`
}

type TrialSweepResult struct {
	Activated int `json:"activated"`
	PastDue   int `json:"past_due"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Create(context.Context, CreateSubscriptionRequest) (Subscription, error)
	Get(ctx context.Context) (Subscription, error)
	// CalculatePlanChange quotes a plan change from the static tables without
	// mutating state.
	CalculatePlanChange(ctx context.Context, req ChangePlanRequest) (PlanChangeQuote, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (Subscription, error)
	Cancel(ctx context.Context) (Subscription, error)

	CheckLimit(ctx context.Context, metric UsageMetric) (LimitCheck, error)
	// IncrementUsage consumes one unit of a metric, failing with
	// ErrLimitExceeded when the cap would be crossed.
	IncrementUsage(ctx context.Context, metric UsageMetric) error
	ResetUsageIfPeriodEnded(ctx context.Context, now time.Time) (Subscription, bool, error)

	AddPaymentMethod(ctx context.Context, req AddPaymentMethodRequest) (Subscription, error)
	SetDefaultPaymentMethod(ctx context.Context, methodID string) (Subscription, error)
	RemovePaymentMethod(ctx context.Context, methodID string) (Subscription, error)

	// ProcessTrialExpirations settles every subscription whose trial has
	// lapsed: to active when a default payment method exists, otherwise to
	// past_due. Safe under at-least-once invocation.
	ProcessTrialExpirations(ctx context.Context, now time.Time) (TrialSweepResult, error)
	// ResetDueUsage sweeps all subscriptions whose billing period has rolled
	// over and zeroes their counters.
	ResetDueUsage(ctx context.Context, now time.Time) (int, error)
}

var (
	ErrInvalidUser           = errors.New("invalid_user")
	ErrInvalidPlan           = errors.New("invalid_plan")
	ErrInvalidBillingCycle   = errors.New("invalid_billing_cycle")
	ErrInvalidMetric         = errors.New("invalid_metric")
	ErrSubscriptionExists    = errors.New("subscription_exists")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrSubscriptionCancelled = errors.New("subscription_cancelled")
	ErrLimitExceeded         = errors.New("limit_exceeded")
	ErrPaymentMethodNotFound = errors.New("payment_method_not_found")
)
