package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/eoladapo/sellmate-backend-sub002/internal/order/domain"
	"github.com/eoladapo/sellmate-backend-sub002/internal/userctx"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
)

type createOrderRequest struct {
	CustomerID          string                   `json:"customer_id"`
	ConversationID      string                   `json:"conversation_id"`
	SourceMessageID     string                   `json:"source_message_id"`
	Product             orderdomain.ProductInfo  `json:"product"`
	Customer            orderdomain.CustomerInfo `json:"customer"`
	OperationalExpenses float64                  `json:"operational_expenses"`
	ExpiresAt           *time.Time               `json:"expires_at"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	sourceMessageID := strings.TrimSpace(req.SourceMessageID)

	// claim the chat message first so a webhook retry cannot create the
	// same order twice
	if userID, ok := userctx.UserIDFromContext(ctx); ok && sourceMessageID != "" {
		token, acquired, err := s.intakeLimiter.TryLockSourceMessage(ctx, userID, sourceMessageID)
		if err == nil && !acquired {
			AbortWithError(c, ErrConflict)
			return
		}
		if token != "" {
			defer func() {
				_ = s.intakeLimiter.ReleaseSourceMessage(ctx, userID, sourceMessageID, token)
			}()
		}
	}

	resp, err := s.orderSvc.Create(ctx, orderdomain.CreateOrderRequest{
		CustomerID:          strings.TrimSpace(req.CustomerID),
		ConversationID:      strings.TrimSpace(req.ConversationID),
		SourceMessageID:     sourceMessageID,
		Product:             req.Product,
		Customer:            req.Customer,
		OperationalExpenses: req.OperationalExpenses,
		ExpiresAt:           req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		source := "api"
		if sourceMessageID != "" {
			source = "conversation"
		}
		s.obsMetrics.RecordOrderCreated(ctx, source)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		CustomerID  string `form:"customer_id"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}

	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		Status:      strings.TrimSpace(query.Status),
		CustomerID:  strings.TrimSpace(query.CustomerID),
		PageToken:   query.PageToken,
		PageSize:    int32(query.PageSize),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateOrderRequest struct {
	Product             *orderdomain.ProductInfo  `json:"product"`
	Customer            *orderdomain.CustomerInfo `json:"customer"`
	OperationalExpenses *float64                  `json:"operational_expenses"`
	ExpiresAt           *time.Time                `json:"expires_at"`
}

func (s *Server) UpdateOrder(c *gin.Context) {
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orderdomain.UpdateOrderRequest{
		OrderID:             strings.TrimSpace(c.Param("id")),
		Product:             req.Product,
		Customer:            req.Customer,
		OperationalExpenses: req.OperationalExpenses,
		ExpiresAt:           req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type transitionOrderRequest struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (s *Server) TransitionOrder(c *gin.Context) {
	var req transitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	from := ""
	if current, err := s.orderSvc.GetByID(ctx, strings.TrimSpace(c.Param("id"))); err == nil {
		from = string(current.Status)
	}

	resp, err := s.orderSvc.Transition(ctx, orderdomain.TransitionRequest{
		OrderID:      strings.TrimSpace(c.Param("id")),
		TargetStatus: orderdomain.OrderStatus(strings.TrimSpace(req.Status)),
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordOrderTransition(ctx, from, string(resp.Status))
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAbandonedOrders(c *gin.Context) {
	resp, err := s.orderSvc.ListAbandoned(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"orders": resp}})
}

func (s *Server) ListExpiredOrders(c *gin.Context) {
	resp, err := s.orderSvc.ListExpired(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"orders": resp}})
}

func isOrderValidationError(err error) bool {
	switch err {
	case orderdomain.ErrInvalidOrder,
		orderdomain.ErrInvalidCustomer,
		orderdomain.ErrInvalidProduct,
		orderdomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
