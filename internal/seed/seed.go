package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDemoData seeds a starter subscription, a couple of customers, and an
// open order for the configured demo user. Everything is idempotent so
// repeated startups leave the data untouched.
func EnsureDemoData(db *gorm.DB, userID int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if userID == 0 {
		return errors.New("seed user id is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	uid := snowflake.ID(userID)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSubscriptionTx(ctx, tx, node, uid); err != nil {
			return err
		}
		customerID, err := ensureCustomerTx(ctx, tx, node, uid)
		if err != nil {
			return err
		}
		return ensureOrderTx(ctx, tx, node, uid, customerID)
	})
}

func ensureSubscriptionTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	var sub subscriptiondomain.Subscription
	err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	plan := subscriptiondomain.PlanStarter
	sub = subscriptiondomain.Subscription{
		ID:                 node.Generate(),
		UserID:             userID,
		Plan:               plan,
		Status:             subscriptiondomain.SubscriptionStatusActive,
		BillingCycle:       subscriptiondomain.BillingCycleMonthly,
		Amount:             subscriptiondomain.PlanAmount(plan, subscriptiondomain.BillingCycleMonthly),
		Currency:           subscriptiondomain.DefaultCurrency,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		UsageLimits:        datatypes.NewJSONType(subscriptiondomain.LimitsFor(plan)),
		CurrentUsage:       datatypes.NewJSONType(subscriptiondomain.UsageCounters{LastResetDate: now}),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return tx.WithContext(ctx).Create(&sub).Error
}

func ensureCustomerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) (snowflake.ID, error) {
	var customer customerdomain.Customer
	err := tx.WithContext(ctx).
		Where("user_id = ? AND handle = ?", userID, "ada-okafor").
		First(&customer).Error
	if err == nil {
		return customer.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	now := time.Now().UTC()
	customer = customerdomain.Customer{
		ID:        node.Generate(),
		UserID:    userID,
		Name:      "Ada Okafor",
		Handle:    "ada-okafor",
		Contact:   "+2348012345678",
		Platform:  customerdomain.PlatformWhatsApp,
		Notes:     "Repeat buyer, prefers weekend delivery.",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
		return 0, err
	}
	return customer.ID, nil
}

func ensureOrderTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID, customerID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	expires := now.Add(48 * time.Hour)
	profit := datatypes.NewJSONType(orderdomain.ProfitSnapshot{
		TotalRevenue: 15000,
		TotalCost:    9500,
		GrossProfit:  5500,
		NetProfit:    5500,
		ProfitMargin: 36.67,
	})
	order := orderdomain.Order{
		ID:         node.Generate(),
		UserID:     userID,
		CustomerID: &customerID,
		Status:     orderdomain.OrderStatusDraft,
		Product: datatypes.NewJSONType(orderdomain.ProductInfo{
			Name:         "Ankara two-piece",
			Quantity:     1,
			SellingPrice: 15000,
			CostPrice:    9500,
		}),
		Customer: datatypes.NewJSONType(orderdomain.CustomerInfo{
			Name:    "Ada Okafor",
			Contact: "+2348012345678",
		}),
		TotalAmount: 15000,
		Profit:      &profit,
		NetProfit:   5500,
		ExpiresAt:   &expires,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return tx.WithContext(ctx).Create(&order).Error
}
