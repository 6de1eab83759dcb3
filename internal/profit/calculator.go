// Package profit computes revenue, cost, and margin figures for an order
// line. All functions are pure; input validation belongs to the caller.
package profit

import "math"

// Input carries the per-unit prices and quantities for one product line.
type Input struct {
	SellingPrice        float64 `json:"sellingPrice"`
	CostPrice           float64 `json:"costPrice"`
	Quantity            float64 `json:"quantity"`
	OperationalExpenses float64 `json:"operationalExpenses"`
}

// Breakdown is the computed profit figures for an Input.
type Breakdown struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCost    float64 `json:"totalCost"`
	GrossProfit  float64 `json:"grossProfit"`
	NetProfit    float64 `json:"netProfit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// Calculate returns the profit breakdown for the given input. Margin is a
// percentage rounded to two decimals and forced to zero when the selling
// price is not positive.
func Calculate(in Input) Breakdown {
	totalRevenue := in.SellingPrice * in.Quantity
	totalCost := in.CostPrice * in.Quantity
	grossProfit := totalRevenue - totalCost

	return Breakdown{
		TotalRevenue: totalRevenue,
		TotalCost:    totalCost,
		GrossProfit:  grossProfit,
		NetProfit:    grossProfit - in.OperationalExpenses,
		ProfitMargin: Margin(in.SellingPrice, in.CostPrice),
	}
}

// Margin returns the per-unit margin percentage rounded to two decimals, or
// zero when sellingPrice is not positive.
func Margin(sellingPrice, costPrice float64) float64 {
	if sellingPrice <= 0 {
		return 0
	}
	return round2(((sellingPrice - costPrice) / sellingPrice) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
