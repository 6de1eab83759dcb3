package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Platform identifies the messaging channel a customer arrived from.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
)

func (p Platform) Valid() bool {
	return p == PlatformWhatsApp || p == PlatformInstagram
}

type Customer struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID `gorm:"not null;index:idx_customers_user_handle,unique" json:"user_id"`
	Name            string       `gorm:"not null" json:"name"`
	Handle          string       `gorm:"not null;index:idx_customers_user_handle,unique" json:"handle"`
	Contact         string       `gorm:"not null" json:"contact"`
	Platform        Platform     `gorm:"type:text;not null" json:"platform"`
	DeliveryAddress string       `gorm:"type:text" json:"delivery_address,omitempty"`
	Notes           string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
