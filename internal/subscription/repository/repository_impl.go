package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindByUserIDForUpdate(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Save(subscription).Error
}

func (r *repo) ListTrialsDue(ctx context.Context, db *gorm.DB, now time.Time) ([]*subscriptiondomain.Subscription, error) {
	var subs []*subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND trial_end IS NOT NULL AND trial_end < ?", subscriptiondomain.SubscriptionStatusTrial, now).
		Order("trial_end ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) ListPeriodsDue(ctx context.Context, db *gorm.DB, now time.Time) ([]*subscriptiondomain.Subscription, error) {
	var subs []*subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("status <> ? AND current_period_end < ?", subscriptiondomain.SubscriptionStatusCancelled, now).
		Order("current_period_end ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) ListActiveUserIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var userIDs []snowflake.ID
	err := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("status IN ?", []subscriptiondomain.SubscriptionStatus{
			subscriptiondomain.SubscriptionStatusTrial,
			subscriptiondomain.SubscriptionStatusActive,
		}).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
