package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/profit"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// allowedTransitions is the closed explicit-transition table. Expiry is not
// listed; it only happens through the sweep.
var allowedTransitions = map[orderdomain.OrderStatus][]orderdomain.OrderStatus{
	orderdomain.OrderStatusDraft:      {orderdomain.OrderStatusConfirmed, orderdomain.OrderStatusCancelled, orderdomain.OrderStatusAbandoned},
	orderdomain.OrderStatusConfirmed:  {orderdomain.OrderStatusProcessing, orderdomain.OrderStatusCancelled, orderdomain.OrderStatusAbandoned},
	orderdomain.OrderStatusProcessing: {orderdomain.OrderStatusCompleted, orderdomain.OrderStatusCancelled, orderdomain.OrderStatusAbandoned},
	orderdomain.OrderStatusAbandoned:  {orderdomain.OrderStatusConfirmed},
	orderdomain.OrderStatusExpired:    {orderdomain.OrderStatusConfirmed},
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  orderdomain.Repository
	subs  subscriptiondomain.Service
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  orderdomain.Repository
	Subs  subscriptiondomain.Service
}

func NewService(p ServiceParam) orderdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		subs:  p.Subs,
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.Order{}, orderdomain.ErrInvalidUser
	}

	if strings.TrimSpace(req.Product.Name) == "" {
		return orderdomain.Order{}, orderdomain.ErrInvalidProduct
	}

	var customerID *snowflake.ID
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return orderdomain.Order{}, orderdomain.ErrInvalidCustomer
		}
		customerID = &parsed
	}

	// plan caps apply before the row exists
	if err := s.subs.IncrementUsage(ctx, subscriptiondomain.MetricMaxOrders); err != nil {
		if !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return orderdomain.Order{}, err
		}
	}

	now := s.clock.Now()
	order := orderdomain.Order{
		ID:         s.genID.Generate(),
		UserID:     userID,
		CustomerID: customerID,
		Status:     orderdomain.OrderStatusDraft,
		Product:    datatypes.NewJSONType(req.Product),
		Customer:   datatypes.NewJSONType(req.Customer),
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if raw := strings.TrimSpace(req.ConversationID); raw != "" {
		order.ConversationID = &raw
	}
	if raw := strings.TrimSpace(req.SourceMessageID); raw != "" {
		order.SourceMessageID = &raw
	}

	applyPricing(&order, req.Product, req.OperationalExpenses)

	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		// the unique (user_id, source_message_id) index rejects a webhook
		// redelivery of an already-converted chat message
		if order.SourceMessageID != nil && db.IsDuplicateKeyErr(err) {
			return orderdomain.Order{}, orderdomain.ErrDuplicateSourceMessage
		}
		return orderdomain.Order{}, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, orderID string) (orderdomain.Order, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.Order{}, orderdomain.ErrInvalidUser
	}

	id, err := parseOrderID(orderID)
	if err != nil {
		return orderdomain.Order{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return orderdomain.Order{}, err
	}
	if order == nil {
		return orderdomain.Order{}, orderdomain.ErrOrderNotFound
	}
	return *order, nil
}

func (s *Service) List(ctx context.Context, req orderdomain.ListOrderRequest) (orderdomain.ListOrderResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidUser
	}

	filter := orderdomain.ListOrderFilter{
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := orderdomain.OrderStatus(raw)
		if _, known := allowedTransitions[status]; !known && !status.IsTerminal() {
			return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidCustomer
		}
		filter.CustomerID = &parsed
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	rows, err := s.repo.List(ctx, s.db, userID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return orderdomain.ListOrderResponse{}, err
	}

	pageInfo, rows := pagination.BuildCursorPageInfo(rows, pageSize, func(o *orderdomain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        o.ID.String(),
			CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	orders := make([]orderdomain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, *row)
	}
	return orderdomain.ListOrderResponse{
		PageInfo: *pageInfo,
		Orders:   orders,
	}, nil
}

func (s *Service) Update(ctx context.Context, req orderdomain.UpdateOrderRequest) (orderdomain.Order, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.Order{}, orderdomain.ErrInvalidUser
	}

	id, err := parseOrderID(req.OrderID)
	if err != nil {
		return orderdomain.Order{}, err
	}

	var updated orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}

		product := order.Product.Data()
		if req.Product != nil {
			if strings.TrimSpace(req.Product.Name) == "" {
				return orderdomain.ErrInvalidProduct
			}
			product = *req.Product
			order.Product = datatypes.NewJSONType(product)
		}
		if req.Customer != nil {
			order.Customer = datatypes.NewJSONType(*req.Customer)
		}
		if req.ExpiresAt != nil {
			order.ExpiresAt = req.ExpiresAt
		}

		expenses := 0.0
		if req.OperationalExpenses != nil {
			expenses = *req.OperationalExpenses
		} else if order.Profit != nil {
			snapshot := order.Profit.Data()
			expenses = snapshot.GrossProfit - snapshot.NetProfit
		}
		applyPricing(order, product, expenses)

		order.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, order); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return orderdomain.Order{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, orderID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.ErrInvalidUser
	}

	id, err := parseOrderID(orderID)
	if err != nil {
		return err
	}

	order, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if order == nil {
		return orderdomain.ErrOrderNotFound
	}
	return s.repo.Delete(ctx, s.db, userID, id)
}

func (s *Service) Transition(ctx context.Context, req orderdomain.TransitionRequest) (orderdomain.Order, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return orderdomain.Order{}, orderdomain.ErrInvalidUser
	}

	id, err := parseOrderID(req.OrderID)
	if err != nil {
		return orderdomain.Order{}, err
	}

	target := req.TargetStatus
	if target == "" || target == orderdomain.OrderStatusExpired {
		// expiry only happens through the sweep
		return orderdomain.Order{}, orderdomain.ErrInvalidStatus
	}

	var updated orderdomain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if order == nil {
			return orderdomain.ErrOrderNotFound
		}

		if !transitionAllowed(order.Status, target) {
			return orderdomain.ErrInvalidTransition
		}

		from := order.Status
		order.Status = target
		if from.IsReactivatable() && target == orderdomain.OrderStatusConfirmed {
			// reactivation clears expiry unless the caller re-arms it
			order.ExpiresAt = req.ExpiresAt
		}
		order.UpdatedAt = s.clock.Now()

		if err := s.repo.Save(ctx, tx, order); err != nil {
			return err
		}

		s.log.Info("order transition",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(target)),
		)
		updated = *order
		return nil
	})
	if err != nil {
		return orderdomain.Order{}, err
	}
	return updated, nil
}

func (s *Service) ListAbandoned(ctx context.Context) ([]orderdomain.Order, error) {
	return s.listWithStatus(ctx, orderdomain.OrderStatusAbandoned)
}

func (s *Service) ListExpired(ctx context.Context) ([]orderdomain.Order, error) {
	return s.listWithStatus(ctx, orderdomain.OrderStatusExpired)
}

func (s *Service) listWithStatus(ctx context.Context, status orderdomain.OrderStatus) ([]orderdomain.Order, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, orderdomain.ErrInvalidUser
	}

	rows, err := s.repo.ListByStatus(ctx, s.db, userID, []orderdomain.OrderStatus{status})
	if err != nil {
		return nil, err
	}
	orders := make([]orderdomain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, *row)
	}
	return orders, nil
}

func (s *Service) ProcessExpiredOrders(ctx context.Context, now time.Time) (orderdomain.SweepResult, error) {
	affected, err := s.repo.ExpireDue(ctx, s.db, now.UTC())
	if err != nil {
		return orderdomain.SweepResult{}, err
	}
	if affected > 0 {
		s.log.Info("expired orders swept", zap.Int64("count", affected))
	}
	return orderdomain.SweepResult{Expired: affected}, nil
}

func (s *Service) ListRecentlyExpiredUserIDs(ctx context.Context, since time.Time) ([]snowflake.ID, error) {
	return s.repo.ListExpiredUserIDsSince(ctx, s.db, since.UTC())
}

func transitionAllowed(from, to orderdomain.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// applyPricing recomputes the total and the profit snapshot from the product
// line; totalAmount always equals sellingPrice times quantity.
func applyPricing(order *orderdomain.Order, product orderdomain.ProductInfo, expenses float64) {
	breakdown := profit.Calculate(profit.Input{
		SellingPrice:        product.SellingPrice,
		CostPrice:           product.CostPrice,
		Quantity:            product.Quantity,
		OperationalExpenses: expenses,
	})

	order.TotalAmount = breakdown.TotalRevenue
	order.NetProfit = breakdown.NetProfit
	snapshot := datatypes.NewJSONType(orderdomain.ProfitSnapshot{
		TotalRevenue: breakdown.TotalRevenue,
		TotalCost:    breakdown.TotalCost,
		GrossProfit:  breakdown.GrossProfit,
		NetProfit:    breakdown.NetProfit,
		ProfitMargin: breakdown.ProfitMargin,
	})
	order.Profit = &snapshot
}

func parseOrderID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, orderdomain.ErrInvalidOrder
	}
	return id, nil
}
