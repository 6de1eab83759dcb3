package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Order, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListOrderFilter, page pagination.Pagination) ([]*Order, error)
	Save(ctx context.Context, db *gorm.DB, order *Order) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
	ListByStatus(ctx context.Context, db *gorm.DB, userID snowflake.ID, statuses []OrderStatus) ([]*Order, error)
	// ExpireDue moves every active order whose expires_at has passed to
	// expired in one statement and returns the rows affected. Safe to run
	// repeatedly: already-expired rows never match the predicate again.
	ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	CountCompletedInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (int64, error)
	SumCompletedInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (revenue float64, profit float64, err error)
	// ListExpiredUserIDsSince returns the distinct owners of orders expired
	// at or after since.
	ListExpiredUserIDsSince(ctx context.Context, db *gorm.DB, since time.Time) ([]snowflake.ID, error)
}

type ListOrderFilter struct {
	Status      OrderStatus
	CustomerID  *snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
