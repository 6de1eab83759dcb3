package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/option"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id = ?", userID, id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter domain.ListOrderFilter, page pagination.Pagination) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ?", userID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Save(order).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&domain.Order{}).Error
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, userID snowflake.ID, statuses []domain.OrderStatus) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order("updated_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ExpireDue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?", domain.ActiveStatuses, now).
		Updates(map[string]any{
			"status":     domain.OrderStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) CountCompletedInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ? AND status = ? AND updated_at >= ? AND updated_at < ?", userID, domain.OrderStatusCompleted, from, to).
		Count(&count).Error
	return count, err
}

func (r *repo) SumCompletedInPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) (float64, float64, error) {
	var row struct {
		Revenue float64
		Profit  float64
	}
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(SUM(net_profit), 0) AS profit").
		Where("user_id = ? AND status = ? AND updated_at >= ? AND updated_at < ?", userID, domain.OrderStatusCompleted, from, to).
		Scan(&row).Error
	return row.Revenue, row.Profit, err
}

func (r *repo) ListExpiredUserIDsSince(ctx context.Context, db *gorm.DB, since time.Time) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Distinct("user_id").
		Where("status = ? AND updated_at >= ?", domain.OrderStatusExpired, since).
		Pluck("user_id", &ids).Error
	return ids, err
}
