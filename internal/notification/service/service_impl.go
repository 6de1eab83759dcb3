package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability/metrics"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    notificationdomain.Repository
	subs    subscriptiondomain.Service
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    notificationdomain.Repository
	Subs    subscriptiondomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		subs:    p.Subs,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req notificationdomain.CreateNotificationRequest) (*notificationdomain.Notification, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, notificationdomain.ErrInvalidUser
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, notificationdomain.ErrInvalidNotification
	}

	prefs, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolution, err := notificationdomain.Resolve(req.Type, prefs, notificationdomain.EventContext{
		Stock:  req.Stock,
		Margin: req.Margin,
	})
	if err != nil {
		return nil, err
	}
	if !resolution.Enabled {
		return nil, nil
	}

	// plan caps apply to stored notifications; a full quota drops the event
	// rather than failing the triggering action
	if err := s.subs.IncrementUsage(ctx, subscriptiondomain.MetricMaxNotifications); err != nil {
		if errors.Is(err, subscriptiondomain.ErrLimitExceeded) {
			s.log.Debug("notification dropped at plan cap",
				zap.String("user_id", userID.String()),
				zap.String("type", string(req.Type)),
			)
			return nil, nil
		}
		if !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return nil, err
		}
	}

	now := s.clock.Now()
	notification := notificationdomain.Notification{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		Payload:   datatypes.JSONMap(req.Payload),
		Channels:  datatypes.NewJSONSlice(resolution.Channels),
		Priority:  resolution.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &notification); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		for _, channel := range resolution.Channels {
			s.metrics.RecordNotificationSent(ctx, string(req.Type), string(channel))
		}
	}
	return &notification, nil
}

func (s *Service) List(ctx context.Context, req notificationdomain.ListNotificationRequest) (notificationdomain.ListNotificationResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return notificationdomain.ListNotificationResponse{}, notificationdomain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	rows, err := s.repo.List(ctx, s.db, userID, req.UnreadOnly, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return notificationdomain.ListNotificationResponse{}, err
	}

	pageInfo, rows := pagination.BuildCursorPageInfo(rows, pageSize, func(n *notificationdomain.Notification) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        n.ID.String(),
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	notifications := make([]notificationdomain.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, *row)
	}
	return notificationdomain.ListNotificationResponse{
		PageInfo:      *pageInfo,
		Notifications: notifications,
	}, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID string) error {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return notificationdomain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(notificationID))
	if err != nil {
		return notificationdomain.ErrInvalidNotification
	}

	affected, err := s.repo.MarkRead(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := s.repo.FindByID(ctx, s.db, userID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return notificationdomain.ErrNotificationNotFound
		}
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return 0, notificationdomain.ErrInvalidUser
	}
	return s.repo.MarkAllRead(ctx, s.db, userID)
}

func (s *Service) GetPreferences(ctx context.Context) (notificationdomain.PreferenceMap, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, notificationdomain.ErrInvalidUser
	}
	return s.preferences(ctx, userID)
}

func (s *Service) UpdatePreferences(ctx context.Context, prefs notificationdomain.PreferenceMap) (notificationdomain.PreferenceMap, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, notificationdomain.ErrInvalidUser
	}

	for t := range prefs {
		if _, err := notificationdomain.Resolve(t, nil, notificationdomain.EventContext{}); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	row, err := s.repo.FindPreferences(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &notificationdomain.UserPreferences{
			UserID:    userID,
			CreatedAt: now,
		}
	}
	row.Prefs = datatypes.NewJSONType(prefs)
	row.UpdatedAt = now

	if err := s.repo.SavePreferences(ctx, s.db, row); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *Service) preferences(ctx context.Context, userID snowflake.ID) (notificationdomain.PreferenceMap, error) {
	row, err := s.repo.FindPreferences(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return notificationdomain.PreferenceMap{}, nil
	}
	return row.Prefs.Data(), nil
}
