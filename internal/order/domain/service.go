package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
)

type CreateOrderRequest struct {
	CustomerID          string       `json:"customer_id,omitempty"`
	ConversationID      string       `json:"conversation_id,omitempty"`
	SourceMessageID     string       `json:"source_message_id,omitempty"`
	Product             ProductInfo  `json:"product"`
	Customer            CustomerInfo `json:"customer"`
	OperationalExpenses float64      `json:"operational_expenses,omitempty"`
	ExpiresAt           *time.Time   `json:"expires_at,omitempty"`
}

type UpdateOrderRequest struct {
	OrderID             string        `json:"-"`
	Product             *ProductInfo  `json:"product,omitempty"`
	Customer            *CustomerInfo `json:"customer,omitempty"`
	OperationalExpenses *float64      `json:"operational_expenses,omitempty"`
	ExpiresAt           *time.Time    `json:"expires_at,omitempty"`
}

type ListOrderRequest struct {
	Status      string
	CustomerID  string
	PageToken   string
	PageSize    int32
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

type TransitionRequest struct {
	OrderID      string
	TargetStatus OrderStatus
	// ExpiresAt optionally re-arms expiry when reactivating.
	ExpiresAt *time.Time
}

type SweepResult struct {
	Expired int64 `json:"expired"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Create(context.Context, CreateOrderRequest) (Order, error)
	GetByID(ctx context.Context, orderID string) (Order, error)
	List(context.Context, ListOrderRequest) (ListOrderResponse, error)
	Update(context.Context, UpdateOrderRequest) (Order, error)
	Delete(ctx context.Context, orderID string) error
	Transition(context.Context, TransitionRequest) (Order, error)
	ListAbandoned(ctx context.Context) ([]Order, error)
	ListExpired(ctx context.Context) ([]Order, error)
	// ProcessExpiredOrders sweeps every user's due orders. Idempotent: a
	// second call without new expirations reports zero.
	ProcessExpiredOrders(ctx context.Context, now time.Time) (SweepResult, error)
	// ListRecentlyExpiredUserIDs returns the owners touched by a sweep at or
	// after since.
	ListRecentlyExpiredUserIDs(ctx context.Context, since time.Time) ([]snowflake.ID, error)
}

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidOrder      = errors.New("invalid_order")
	ErrInvalidCustomer   = errors.New("invalid_customer")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrOrderNotFound     = errors.New("order_not_found")

	// ErrDuplicateSourceMessage rejects a second order for the same chat
	// message, as happens when a webhook delivery is retried.
	ErrDuplicateSourceMessage = errors.New("duplicate_source_message")
)
