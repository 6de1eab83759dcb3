// Package domain contains notification records, per-user preferences, and the
// type-to-channel resolution rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// NotificationType is a closed set. Resolution rejects anything outside it
// instead of silently ignoring unknown strings.
type NotificationType string

const (
	TypeNewOrder         NotificationType = "new_order"
	TypeOrderExpired     NotificationType = "order_expired"
	TypeOrderAbandoned   NotificationType = "order_abandoned"
	TypePaymentFailed    NotificationType = "payment_failed"
	TypePlanLimitWarning NotificationType = "plan_limit_warning"
	TypeLowInventory     NotificationType = "low_inventory"
	TypeProfitAlert      NotificationType = "profit_alert"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type Notification struct {
	ID        snowflake.ID                 `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID                 `gorm:"not null;index" json:"user_id"`
	Type      NotificationType             `gorm:"type:text;not null" json:"type"`
	Title     string                       `gorm:"not null" json:"title"`
	Body      string                       `gorm:"type:text" json:"body"`
	Payload   datatypes.JSONMap            `gorm:"type:jsonb" json:"payload,omitempty"`
	Channels  datatypes.JSONSlice[Channel] `gorm:"type:jsonb" json:"channels"`
	Priority  Priority                     `gorm:"type:text;not null" json:"priority"`
	Read      bool                         `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time                    `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time                    `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }

// Preference is one user-configured entry in the preference document. Nil
// fields fall back to the type default. Field names are part of the stored
// document shape.
type Preference struct {
	Enabled   *bool     `json:"enabled,omitempty"`
	Channels  []Channel `json:"channels,omitempty"`
	Threshold *float64  `json:"threshold,omitempty"`
	MinMargin *float64  `json:"minMargin,omitempty"`
}

// PreferenceMap keys user overrides by notification type.
type PreferenceMap map[NotificationType]Preference

// UserPreferences is the per-user preference row.
type UserPreferences struct {
	UserID    snowflake.ID                      `gorm:"primaryKey" json:"user_id"`
	Prefs     datatypes.JSONType[PreferenceMap] `gorm:"type:jsonb" json:"prefs"`
	CreatedAt time.Time                         `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time                         `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName sets the database table name.
func (UserPreferences) TableName() string { return "notification_preferences" }
