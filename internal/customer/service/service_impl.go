package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Subs  subscriptiondomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	subs  subscriptiondomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		subs:  p.Subs,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	contact := strings.TrimSpace(req.Contact)
	if contact == "" {
		return domain.Customer{}, domain.ErrInvalidContact
	}
	if !req.Platform.Valid() {
		return domain.Customer{}, domain.ErrInvalidPlatform
	}

	// plan caps apply before the row exists
	if err := s.subs.IncrementUsage(ctx, subscriptiondomain.MetricMaxCustomers); err != nil {
		if !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return domain.Customer{}, err
		}
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:              s.genID.Generate(),
		UserID:          userID,
		Name:            name,
		Contact:         contact,
		Platform:        req.Platform,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// two concurrent creates can pick the same handle; the unique index
	// breaks the tie and the loser recomputes
	for attempt := 0; ; attempt++ {
		handle, err := s.uniqueHandle(ctx, userID, name)
		if err != nil {
			return domain.Customer{}, err
		}
		customer.Handle = handle

		err = s.repo.Insert(ctx, s.db, &customer)
		if err == nil {
			break
		}
		if db.IsDuplicateKeyErr(err) && attempt < 3 {
			continue
		}
		return domain.Customer{}, err
	}

	s.log.Info("customer created",
		zap.String("user_id", userID.String()),
		zap.String("handle", customer.Handle),
	)
	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidUser
	}

	filter := domain.ListCustomerFilter{
		Name:        strings.TrimSpace(req.Name),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if raw := strings.TrimSpace(req.Platform); raw != "" {
		platform := domain.Platform(raw)
		if !platform.Valid() {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPlatform
		}
		filter.Platform = platform
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	items, err := s.repo.List(ctx, s.db, userID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}
	return domain.ListCustomerResponse{
		PageInfo:  *pageInfo,
		Customers: customers,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, customerID string) (domain.Customer, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	id, err := s.parseID(customerID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (domain.Customer, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return domain.Customer{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByHandle(ctx, s.db, userID, handle)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.Customer{}, domain.ErrInvalidUser
	}

	id, err := s.parseID(req.CustomerID)
	if err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		customer.Name = name
	}
	if req.Contact != nil {
		contact := strings.TrimSpace(*req.Contact)
		if contact == "" {
			return domain.Customer{}, domain.ErrInvalidContact
		}
		customer.Contact = contact
	}
	if req.DeliveryAddress != nil {
		customer.DeliveryAddress = strings.TrimSpace(*req.DeliveryAddress)
	}
	if req.Notes != nil {
		customer.Notes = strings.TrimSpace(*req.Notes)
	}
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, customer); err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) Delete(ctx context.Context, customerID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return domain.ErrInvalidUser
	}

	id, err := s.parseID(customerID)
	if err != nil {
		return err
	}

	customer, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, userID, id)
}

// uniqueHandle slugs the name and suffixes a counter on collision.
func (s *Service) uniqueHandle(ctx context.Context, userID snowflake.ID, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "customer"
	}

	handle := base
	for i := 2; ; i++ {
		existing, err := s.repo.FindByHandle(ctx, s.db, userID, handle)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return handle, nil
		}
		handle = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
