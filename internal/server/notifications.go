package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/eoladapo/sellmate-backend-sub002/internal/notification/domain"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db/pagination"
)

type createNotificationRequest struct {
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Payload map[string]any `json:"payload"`
	Stock   *float64       `json:"stock"`
	Margin  *float64       `json:"margin"`
}

func (s *Server) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.Create(c.Request.Context(), notificationdomain.CreateNotificationRequest{
		Type:    notificationdomain.NotificationType(strings.TrimSpace(req.Type)),
		Title:   strings.TrimSpace(req.Title),
		Body:    req.Body,
		Payload: req.Payload,
		Stock:   req.Stock,
		Margin:  req.Margin,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// preferences or thresholds suppressed the event
	if resp == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil, "suppressed": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		pagination.Pagination
		UnreadOnly bool `form:"unread_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), notificationdomain.ListNotificationRequest{
		UnreadOnly: query.UnreadOnly,
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.notificationSvc.MarkRead(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	count, err := s.notificationSvc.MarkAllRead(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": count}})
}

func (s *Server) GetNotificationPreferences(c *gin.Context) {
	resp, err := s.notificationSvc.GetPreferences(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"preferences": resp}})
}

func (s *Server) UpdateNotificationPreferences(c *gin.Context) {
	var req map[notificationdomain.NotificationType]notificationdomain.Preference
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.UpdatePreferences(c.Request.Context(), notificationdomain.PreferenceMap(req))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"preferences": resp}})
}

func isNotificationValidationError(err error) bool {
	switch err {
	case notificationdomain.ErrUnknownType,
		notificationdomain.ErrInvalidNotification:
		return true
	default:
		return false
	}
}
