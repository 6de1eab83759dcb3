package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Customer, error)
	FindByHandle(ctx context.Context, db *gorm.DB, userID snowflake.ID, handle string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
	Save(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
	CountByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
}
