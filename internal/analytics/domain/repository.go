package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert replaces the snapshot for (user, periodStart) in place.
	Upsert(ctx context.Context, db *gorm.DB, metrics *BusinessMetrics) error
	FindPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, periodStart time.Time) (*BusinessMetrics, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*BusinessMetrics, error)
}
