// Package domain contains persistence models for subscriptions, plan limits,
// and payment methods.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Plan identifies a pricing tier.
type Plan string

const (
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanBusiness     Plan = "business"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanProfessional, PlanBusiness:
		return true
	}
	return false
}

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
)

// BillingCycle governs the recurrence period and the usage-counter reset.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// UsageMetric names one countable dimension of a plan.
type UsageMetric string

const (
	MetricMaxOrders        UsageMetric = "maxOrders"
	MetricMaxConversations UsageMetric = "maxConversations"
	MetricMaxCustomers     UsageMetric = "maxCustomers"
	MetricMaxNotifications UsageMetric = "maxNotifications"
)

// UsageLimits is the per-plan cap document. -1 marks a dimension unlimited.
// Field names are part of the stored document shape.
type UsageLimits struct {
	MaxOrders        int `json:"maxOrders"`
	MaxConversations int `json:"maxConversations"`
	MaxCustomers     int `json:"maxCustomers"`
	MaxNotifications int `json:"maxNotifications"`
}

// Limit returns the cap for a metric; unknown metrics report 0 (never allowed).
func (l UsageLimits) Limit(metric UsageMetric) int {
	switch metric {
	case MetricMaxOrders:
		return l.MaxOrders
	case MetricMaxConversations:
		return l.MaxConversations
	case MetricMaxCustomers:
		return l.MaxCustomers
	case MetricMaxNotifications:
		return l.MaxNotifications
	}
	return 0
}

// UsageCounters tracks consumption inside the current billing period.
type UsageCounters struct {
	Orders        int       `json:"orders"`
	Conversations int       `json:"conversations"`
	Customers     int       `json:"customers"`
	Notifications int       `json:"notifications"`
	LastResetDate time.Time `json:"lastResetDate"`
}

func (c UsageCounters) Value(metric UsageMetric) int {
	switch metric {
	case MetricMaxOrders:
		return c.Orders
	case MetricMaxConversations:
		return c.Conversations
	case MetricMaxCustomers:
		return c.Customers
	case MetricMaxNotifications:
		return c.Notifications
	}
	return 0
}

func (c *UsageCounters) Add(metric UsageMetric, delta int) {
	switch metric {
	case MetricMaxOrders:
		c.Orders += delta
	case MetricMaxConversations:
		c.Conversations += delta
	case MetricMaxCustomers:
		c.Customers += delta
	case MetricMaxNotifications:
		c.Notifications += delta
	}
}

// PaymentMethod is one stored payment instrument. At most one entry in a
// subscription's list carries IsDefault.
type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Last4     string `json:"last4,omitempty"`
	Provider  string `json:"provider,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// Subscription captures a user's billing agreement. Each user has at most one.
type Subscription struct {
	ID                 snowflake.ID                       `gorm:"primaryKey" json:"id"`
	UserID             snowflake.ID                       `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan               Plan                               `gorm:"type:text;not null" json:"plan"`
	Status             SubscriptionStatus                 `gorm:"type:text;not null;index" json:"status"`
	BillingCycle       BillingCycle                       `gorm:"type:text;not null" json:"billing_cycle"`
	Amount             float64                            `gorm:"not null" json:"amount"`
	Currency           string                             `gorm:"type:text;not null" json:"currency"`
	CurrentPeriodStart time.Time                          `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time                          `gorm:"not null;index" json:"current_period_end"`
	TrialEnd           *time.Time                         `gorm:";index" json:"trial_end,omitempty"`
	PaymentMethods     datatypes.JSONSlice[PaymentMethod] `gorm:"type:jsonb" json:"payment_methods"`
	UsageLimits        datatypes.JSONType[UsageLimits]    `gorm:"type:jsonb" json:"usage_limits"`
	CurrentUsage       datatypes.JSONType[UsageCounters]  `gorm:"type:jsonb" json:"current_usage"`
	FailedPaymentCount int                                `gorm:"not null;default:0" json:"failed_payment_count"`
	CreatedAt          time.Time                          `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt          time.Time                          `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// DefaultPaymentMethod returns the entry flagged default, or nil.
func (s Subscription) DefaultPaymentMethod() *PaymentMethod {
	for i := range s.PaymentMethods {
		if s.PaymentMethods[i].IsDefault {
			return &s.PaymentMethods[i]
		}
	}
	return nil
}
