package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
	analyticsrepo "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/repository"
	analyticsservice "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/service"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	customerdomain "github.com/eoladapo/sellmate-backend-sub002/internal/customer/domain"
	customerrepo "github.com/eoladapo/sellmate-backend-sub002/internal/customer/repository"
	customerservice "github.com/eoladapo/sellmate-backend-sub002/internal/customer/service"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	notificationrepo "github.com/eoladapo/sellmate-backend-sub002/internal/notification/repository"
	notificationservice "github.com/eoladapo/sellmate-backend-sub002/internal/notification/service"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	orderrepo "github.com/eoladapo/sellmate-backend-sub002/internal/order/repository"
	orderservice "github.com/eoladapo/sellmate-backend-sub002/internal/order/service"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
	subscriptionrepo "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/repository"
	subscriptionservice "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, snowflake.ID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&customerdomain.Customer{},
		&subscriptiondomain.Subscription{},
		&notificationdomain.Notification{},
		&notificationdomain.UserPreferences{},
		&analyticsdomain.BusinessMetrics{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: subscriptionrepo.Provide(),
	})
	orders := orderservice.NewService(orderservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: orderrepo.Provide(), Subs: subs,
	})
	customers := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: customerrepo.Provide(), Subs: subs,
	})
	notifs := notificationservice.NewService(notificationservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fc, Repo: notificationrepo.Provide(), Subs: subs,
	})
	analytics := analyticsservice.NewService(analyticsservice.ServiceParam{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fc,
		Repo:         analyticsrepo.Provide(),
		OrderRepo:    orderrepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		SubRepo:      subscriptionrepo.Provide(),
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:          r,
		cfg:             config.Config{},
		db:              db,
		genID:           node,
		orderSvc:        orders,
		customerSvc:     customers,
		subscriptionSvc: subs,
		notificationSvc: notifs,
		analyticsSvc:    analytics,
	}
	srv.RegisterAPIRoutes()

	return srv, node.Generate()
}

func doRequest(t *testing.T, srv *Server, userID snowflake.ID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set(HeaderUser, userID.String())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestUserRequired_RejectsMissingHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, 0, http.MethodGet, "/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_ComputesPricing(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPost, "/v1/orders", gin.H{
		"product": gin.H{
			"name":         "ankara fabric",
			"quantity":     2,
			"sellingPrice": 500,
			"costPrice":    300,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data orderdomain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, orderdomain.OrderStatusDraft, resp.Data.Status)
	assert.Equal(t, 1000.0, resp.Data.TotalAmount)
}

func TestCreateOrder_InvalidProduct(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPost, "/v1/orders", gin.H{
		"product": gin.H{"name": "  ", "quantity": 1, "sellingPrice": 100},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_product")
}

func TestCreateOrder_RedeliveredSourceMessageConflicts(t *testing.T) {
	srv, userID := newTestServer(t)

	payload := gin.H{
		"source_message_id": "wamid.abc",
		"product": gin.H{
			"name":         "soap",
			"quantity":     1,
			"sellingPrice": 100,
		},
	}
	w := doRequest(t, srv, userID, http.MethodPost, "/v1/orders", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, userID, http.MethodPost, "/v1/orders", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "an order for this source message already exists")
}

func TestTransitionOrder_InvalidMoveConflicts(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPost, "/v1/orders", gin.H{
		"product": gin.H{"name": "jeans", "quantity": 1, "sellingPrice": 150},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Data orderdomain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := "/v1/orders/" + created.Data.ID.String() + "/transition"
	w = doRequest(t, srv, userID, http.MethodPost, path, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, srv, userID, http.MethodPost, path, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetOrder_NotFoundForOtherUser(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPost, "/v1/orders", gin.H{
		"product": gin.H{"name": "wig", "quantity": 1, "sellingPrice": 200},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Data orderdomain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	other := userID + 1
	w = doRequest(t, srv, other, http.MethodGet, "/v1/orders/"+created.Data.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionLifecycleOverHTTP(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPost, "/v1/subscription", gin.H{
		"plan": "starter",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// creating twice conflicts
	w = doRequest(t, srv, userID, http.MethodPost, "/v1/subscription", gin.H{
		"plan": "starter",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// unknown plan is a validation error
	w = doRequest(t, srv, userID, http.MethodPost, "/v1/subscription/change-plan/preview", gin.H{
		"plan": "enterprise",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_plan")

	w = doRequest(t, srv, userID, http.MethodGet, "/v1/subscription/limits/maxOrders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var limits struct {
		Data subscriptiondomain.LimitCheck `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limits))
	assert.True(t, limits.Data.Allowed)
	assert.Equal(t, 50, limits.Data.Limit)
}

func TestNotificationPreferencesRoundTrip(t *testing.T) {
	srv, userID := newTestServer(t)

	w := doRequest(t, srv, userID, http.MethodPut, "/v1/notifications/preferences", gin.H{
		"new_order": gin.H{"enabled": false},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// a disabled type is suppressed, not persisted
	w = doRequest(t, srv, userID, http.MethodPost, "/v1/notifications", gin.H{
		"type":  "new_order",
		"title": "New order",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suppressed":true`)

	w = doRequest(t, srv, userID, http.MethodPost, "/v1/notifications", gin.H{
		"type":  "carrier_pigeon",
		"title": "??",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
