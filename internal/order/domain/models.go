// Package domain contains persistence models and contracts for orders
// captured from messaging conversations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// OrderStatus represents lifecycle states for an order.
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusAbandoned  OrderStatus = "abandoned"
	OrderStatusExpired    OrderStatus = "expired"
)

// ActiveStatuses are the states the expiry sweep still acts on. Completed and
// cancelled orders are final; abandoned and expired orders stay reactivatable
// but receive no further automatic transitions.
var ActiveStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusConfirmed,
	OrderStatusProcessing,
}

// IsTerminal reports whether no automatic transition leaves the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusAbandoned, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// IsReactivatable reports whether the order can be pulled back to confirmed.
func (s OrderStatus) IsReactivatable() bool {
	return s == OrderStatusAbandoned || s == OrderStatusExpired
}

// ProductInfo is the product line captured from the conversation. Field names
// round-trip with documents stored by earlier releases.
type ProductInfo struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	SellingPrice float64 `json:"sellingPrice"`
	CostPrice    float64 `json:"costPrice,omitempty"`
}

// CustomerInfo is the buyer contact snapshot embedded on the order.
type CustomerInfo struct {
	Name            string `json:"name"`
	Contact         string `json:"contact"`
	DeliveryAddress string `json:"deliveryAddress,omitempty"`
}

// Order captures a sale in progress, from conversation draft to completion.
type Order struct {
	ID              snowflake.ID                           `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID                           `gorm:"not null;index;uniqueIndex:idx_orders_user_source_msg" json:"userId"`
	CustomerID      *snowflake.ID                          `gorm:"index" json:"customerId,omitempty"`
	ConversationID  *string                                `gorm:"type:text" json:"conversationId,omitempty"`
	SourceMessageID *string                                `gorm:"type:text;uniqueIndex:idx_orders_user_source_msg" json:"sourceMessageId,omitempty"`
	Status          OrderStatus                            `gorm:"type:text;not null;index" json:"status"`
	Product         datatypes.JSONType[ProductInfo]        `gorm:"type:jsonb;not null" json:"product"`
	Customer        datatypes.JSONType[CustomerInfo]       `gorm:"type:jsonb;not null" json:"customer"`
	TotalAmount     float64                                `gorm:"not null" json:"totalAmount"`
	Profit          *datatypes.JSONType[ProfitSnapshot]    `gorm:"type:jsonb" json:"profit,omitempty"`
	// NetProfit denormalizes the snapshot for SQL aggregation.
	NetProfit       float64                                `gorm:"not null;default:0" json:"-"`
	ExpiresAt       *time.Time                             `gorm:"index" json:"expiresAt,omitempty"`
	CreatedAt       time.Time                              `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt       time.Time                              `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// ProfitSnapshot is the profit breakdown frozen on the order at write time.
// Field names round-trip with stored documents.
type ProfitSnapshot struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCost    float64 `json:"totalCost"`
	GrossProfit  float64 `json:"grossProfit"`
	NetProfit    float64 `json:"netProfit"`
	ProfitMargin float64 `json:"profitMargin"`
}
