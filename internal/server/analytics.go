package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/eoladapo/sellmate-backend-sub002/internal/analytics/domain"
)

func (s *Server) GetCurrentPeriodMetrics(c *gin.Context) {
	resp, err := s.analyticsSvc.GetCurrentPeriod(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBusinessMetrics(c *gin.Context) {
	var query struct {
		Limit int32 `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.analyticsSvc.List(c.Request.Context(), analyticsdomain.ListMetricsRequest{
		Limit: query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
