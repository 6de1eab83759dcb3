// Package domain contains the per-period business metric snapshots derived
// from completed orders.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BusinessMetrics is one immutable per-user rollup row. Only the
// recomputation job rewrites it.
type BusinessMetrics struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;index:idx_business_metrics_user_period,unique" json:"userId"`
	PeriodStart   time.Time    `gorm:"not null;index:idx_business_metrics_user_period,unique" json:"periodStart"`
	PeriodEnd     time.Time    `gorm:"not null" json:"periodEnd"`
	TotalRevenue  float64      `gorm:"not null" json:"totalRevenue"`
	TotalProfit   float64      `gorm:"not null" json:"totalProfit"`
	OrderCount    int64        `gorm:"not null" json:"orderCount"`
	CustomerCount int64        `gorm:"not null" json:"customerCount"`
	ComputedAt    time.Time    `gorm:"not null" json:"computedAt"`
}

// TableName sets the database table name.
func (BusinessMetrics) TableName() string { return "business_metrics" }
