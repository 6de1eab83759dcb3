package domain

import (
	"context"
	"errors"
	"time"

	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Platform    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerFilter struct {
	Name        string
	Platform    Platform
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name            string   `json:"name"`
	Contact         string   `json:"contact"`
	Platform        Platform `json:"platform"`
	DeliveryAddress string   `json:"delivery_address,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type UpdateCustomerRequest struct {
	CustomerID      string  `json:"-"`
	Name            *string `json:"name,omitempty"`
	Contact         *string `json:"contact,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(ctx context.Context, customerID string) (Customer, error)
	GetByHandle(ctx context.Context, handle string) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, customerID string) error
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidContact  = errors.New("invalid_contact")
	ErrInvalidPlatform = errors.New("invalid_platform")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
