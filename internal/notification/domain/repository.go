package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Notification, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error)
	MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	FindPreferences(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*UserPreferences, error)
	SavePreferences(ctx context.Context, db *gorm.DB, prefs *UserPreferences) error
}
