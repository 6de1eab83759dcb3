package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/eoladapo/sellmate-backend-sub002/internal/subscription/domain"
)

type createSubscriptionRequest struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billing_cycle"`
	WithTrial    bool   `json:"with_trial"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateSubscriptionRequest{
		Plan:         subscriptiondomain.Plan(strings.TrimSpace(req.Plan)),
		BillingCycle: subscriptiondomain.BillingCycle(strings.TrimSpace(req.BillingCycle)),
		WithTrial:    req.WithTrial,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type changePlanRequest struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billing_cycle"`
}

func (s *Server) PreviewPlanChange(c *gin.Context) {
	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.CalculatePlanChange(c.Request.Context(), subscriptiondomain.ChangePlanRequest{
		TargetPlan:   subscriptiondomain.Plan(strings.TrimSpace(req.Plan)),
		BillingCycle: subscriptiondomain.BillingCycle(strings.TrimSpace(req.BillingCycle)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChangePlan(c *gin.Context) {
	var req changePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.ChangePlan(c.Request.Context(), subscriptiondomain.ChangePlanRequest{
		TargetPlan:   subscriptiondomain.Plan(strings.TrimSpace(req.Plan)),
		BillingCycle: subscriptiondomain.BillingCycle(strings.TrimSpace(req.BillingCycle)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Cancel(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckLimit(c *gin.Context) {
	metric := subscriptiondomain.UsageMetric(strings.TrimSpace(c.Param("metric")))
	resp, err := s.subscriptionSvc.CheckLimit(c.Request.Context(), metric)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addPaymentMethodRequest struct {
	Type        string `json:"type"`
	Last4       string `json:"last4"`
	Provider    string `json:"provider"`
	MakeDefault bool   `json:"make_default"`
}

func (s *Server) AddPaymentMethod(c *gin.Context) {
	var req addPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.AddPaymentMethod(c.Request.Context(), subscriptiondomain.AddPaymentMethodRequest{
		Type:        strings.TrimSpace(req.Type),
		Last4:       strings.TrimSpace(req.Last4),
		Provider:    strings.TrimSpace(req.Provider),
		MakeDefault: req.MakeDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDefaultPaymentMethod(c *gin.Context) {
	resp, err := s.subscriptionSvc.SetDefaultPaymentMethod(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemovePaymentMethod(c *gin.Context) {
	resp, err := s.subscriptionSvc.RemovePaymentMethod(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isSubscriptionValidationError(err error) bool {
	switch err {
	case subscriptiondomain.ErrInvalidPlan,
		subscriptiondomain.ErrInvalidBillingCycle,
		subscriptiondomain.ErrInvalidMetric:
		return true
	default:
		return false
	}
}
