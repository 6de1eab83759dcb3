package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/eoladapo/sellmate-backend-sub002/internal/analytics"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer"
	customerdomain "github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/notification"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability"
	obsmiddleware "github.com/eoladapo/sellmate-backend-sub002/internal/observability/logger"
	obsmetrics "github.com/eoladapo/sellmate-backend-sub002/internal/observability/metrics"
	obstracing "github.com/eoladapo/sellmate-backend-sub002/internal/observability/tracing"
	"github.com/eoladapo/sellmate-backend-sub002/internal/order"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/ratelimit"
	"github.com/eoladapo/sellmate-backend-sub002/internal/subscription"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	order.Module,
	customer.Module,
	subscription.Module,
	notification.Module,
	analytics.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	orderSvc        orderdomain.Service
	customerSvc     customerdomain.Service
	subscriptionSvc subscriptiondomain.Service
	notificationSvc notificationdomain.Service
	analyticsSvc    analyticsdomain.Service
	obsMetrics      *obsmetrics.Metrics
	intakeLimiter   *ratelimit.OrderIntakeLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	OrderSvc        orderdomain.Service
	CustomerSvc     customerdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	NotificationSvc notificationdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	ObsMetrics      *obsmetrics.Metrics           `optional:"true"`
	IntakeLimiter   *ratelimit.OrderIntakeLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		orderSvc:        p.OrderSvc,
		customerSvc:     p.CustomerSvc,
		subscriptionSvc: p.SubscriptionSvc,
		notificationSvc: p.NotificationSvc,
		analyticsSvc:    p.AnalyticsSvc,
		obsMetrics:      p.ObsMetrics,
		intakeLimiter:   p.IntakeLimiter,
	}
}

func RegisterRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1", s.UserRequired())

	// -------- Orders --------
	v1.POST("/orders", s.OrderIntakeRateLimit(), s.CreateOrder)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/abandoned", s.ListAbandonedOrders)
	v1.GET("/orders/expired", s.ListExpiredOrders)
	v1.GET("/orders/:id", s.GetOrderByID)
	v1.PATCH("/orders/:id", s.UpdateOrder)
	v1.DELETE("/orders/:id", s.DeleteOrder)
	v1.POST("/orders/:id/transition", s.TransitionOrder)

	// -------- Customers --------
	v1.GET("/customers", s.ListCustomers)
	v1.POST("/customers", s.CreateCustomer)
	v1.GET("/customers/:id", s.GetCustomerByID)
	v1.GET("/customers/by-handle/:handle", s.GetCustomerByHandle)
	v1.PATCH("/customers/:id", s.UpdateCustomer)
	v1.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Subscription --------
	v1.POST("/subscription", s.CreateSubscription)
	v1.GET("/subscription", s.GetSubscription)
	v1.POST("/subscription/change-plan/preview", s.PreviewPlanChange)
	v1.POST("/subscription/change-plan", s.ChangePlan)
	v1.POST("/subscription/cancel", s.CancelSubscription)
	v1.GET("/subscription/limits/:metric", s.CheckLimit)
	v1.POST("/subscription/payment-methods", s.AddPaymentMethod)
	v1.POST("/subscription/payment-methods/:id/default", s.SetDefaultPaymentMethod)
	v1.DELETE("/subscription/payment-methods/:id", s.RemovePaymentMethod)

	// -------- Notifications --------
	v1.POST("/notifications", s.CreateNotification)
	v1.GET("/notifications", s.ListNotifications)
	v1.POST("/notifications/:id/read", s.MarkNotificationRead)
	v1.POST("/notifications/read-all", s.MarkAllNotificationsRead)
	v1.GET("/notifications/preferences", s.GetNotificationPreferences)
	v1.PUT("/notifications/preferences", s.UpdateNotificationPreferences)

	// -------- Analytics --------
	v1.GET("/analytics/current", s.GetCurrentPeriodMetrics)
	v1.GET("/analytics/history", s.ListBusinessMetrics)
}
