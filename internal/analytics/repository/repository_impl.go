package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() analyticsdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, metrics *analyticsdomain.BusinessMetrics) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "period_start"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"period_end", "total_revenue", "total_profit", "order_count", "customer_count", "computed_at",
			}),
		}).
		Create(metrics).Error
}

func (r *repo) FindPeriod(ctx context.Context, db *gorm.DB, userID snowflake.ID, periodStart time.Time) (*analyticsdomain.BusinessMetrics, error) {
	var metrics analyticsdomain.BusinessMetrics
	err := db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		First(&metrics).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &metrics, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*analyticsdomain.BusinessMetrics, error) {
	if limit <= 0 {
		limit = 12
	}
	var rows []*analyticsdomain.BusinessMetrics
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
