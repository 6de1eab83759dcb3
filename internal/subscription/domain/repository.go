package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	FindByUserIDForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	Save(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	// ListTrialsDue returns subscriptions still in trial whose TrialEnd has
	// passed.
	ListTrialsDue(ctx context.Context, db *gorm.DB, now time.Time) ([]*Subscription, error)
	// ListPeriodsDue returns non-cancelled subscriptions whose billing period
	// has ended.
	ListPeriodsDue(ctx context.Context, db *gorm.DB, now time.Time) ([]*Subscription, error)
	ListActiveUserIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
}
