package domain

// DefaultCurrency applies to all plan prices.
const DefaultCurrency = "NGN"

// TrialDays is the length of the starter trial granted on signup.
const TrialDays = 14

// PlanPricing holds the recurring amount per billing cycle.
type PlanPricing struct {
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
}

// Amount returns the price for the given cycle.
func (p PlanPricing) Amount(cycle BillingCycle) float64 {
	if cycle == BillingCycleYearly {
		return p.Yearly
	}
	return p.Monthly
}

// planPricing is the static pricing table. Yearly grants two months free.
var planPricing = map[Plan]PlanPricing{
	PlanStarter:      {Monthly: 2500, Yearly: 25000},
	PlanProfessional: {Monthly: 5500, Yearly: 55000},
	PlanBusiness:     {Monthly: 12000, Yearly: 120000},
}

// planLimits is the static limit table. The business plan is unlimited on
// every dimension (-1 sentinel).
var planLimits = map[Plan]UsageLimits{
	PlanStarter: {
		MaxOrders:        50,
		MaxConversations: 100,
		MaxCustomers:     100,
		MaxNotifications: 200,
	},
	PlanProfessional: {
		MaxOrders:        500,
		MaxConversations: 1000,
		MaxCustomers:     1000,
		MaxNotifications: 2000,
	},
	PlanBusiness: {
		MaxOrders:        -1,
		MaxConversations: -1,
		MaxCustomers:     -1,
		MaxNotifications: -1,
	},
}

// PricingFor returns the static pricing row for a plan.
func PricingFor(plan Plan) PlanPricing {
	return planPricing[plan]
}

// LimitsFor returns the static limit row for a plan.
func LimitsFor(plan Plan) UsageLimits {
	return planLimits[plan]
}

// PlanAmount returns the recurring amount for a plan and cycle straight from
// the pricing table. Pure; no proration.
func PlanAmount(plan Plan, cycle BillingCycle) float64 {
	return planPricing[plan].Amount(cycle)
}

// CheckLimit reports whether one more unit of usage is allowed under the
// given limits. A -1 limit is unlimited. Never an error; the caller decides
// whether to block the underlying action.
func CheckLimit(limits UsageLimits, metric UsageMetric, current int) bool {
	limit := limits.Limit(metric)
	if limit == -1 {
		return true
	}
	return current < limit
}
