package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/option"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() notificationdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *notificationdomain.Notification) error {
	return db.WithContext(ctx).Create(notification).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*notificationdomain.Notification, error) {
	var n notificationdomain.Notification
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, unreadOnly bool, page pagination.Pagination) ([]*notificationdomain.Notification, error) {
	query := db.WithContext(ctx).
		Model(&notificationdomain.Notification{}).
		Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	query = option.ApplyPagination(page).Apply(query).
		Order("created_at desc, id desc")

	var rows []*notificationdomain.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Model(&notificationdomain.Notification{}).
		Where("user_id = ? AND id = ? AND read = ?", userID, id, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Model(&notificationdomain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *repo) FindPreferences(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*notificationdomain.UserPreferences, error) {
	var prefs notificationdomain.UserPreferences
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *repo) SavePreferences(ctx context.Context, db *gorm.DB, prefs *notificationdomain.UserPreferences) error {
	return db.WithContext(ctx).Save(prefs).Error
}
