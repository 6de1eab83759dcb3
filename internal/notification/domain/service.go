package domain

import (
	"context"
	"errors"

	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
)

type CreateNotificationRequest struct {
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Body    string           `json:"body,omitempty"`
	Payload map[string]any   `json:"payload,omitempty"`
	// Stock and Margin feed the threshold-gated types.
	Stock  *float64 `json:"stock,omitempty"`
	Margin *float64 `json:"margin,omitempty"`
}

type ListNotificationRequest struct {
	UnreadOnly bool
	PageToken  string
	PageSize   int32
}

type ListNotificationResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	// Create resolves the type against the user's preferences and persists
	// the notification when enabled. A suppressed event returns (nil, nil).
	Create(context.Context, CreateNotificationRequest) (*Notification, error)
	List(context.Context, ListNotificationRequest) (ListNotificationResponse, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) (int64, error)
	GetPreferences(ctx context.Context) (PreferenceMap, error)
	UpdatePreferences(ctx context.Context, prefs PreferenceMap) (PreferenceMap, error)
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidNotification  = errors.New("invalid_notification")
	ErrNotificationNotFound = errors.New("notification_not_found")
)
