package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ListMetricsRequest struct {
	Limit int32
}

type ListMetricsResponse struct {
	Metrics []BusinessMetrics `json:"metrics"`
}

type Service interface {
	// GetCurrentPeriod returns the caller's snapshot for the calendar month
	// containing now, computing it on demand when absent.
	GetCurrentPeriod(ctx context.Context) (BusinessMetrics, error)
	List(ctx context.Context, req ListMetricsRequest) (ListMetricsResponse, error)
	// Recompute rebuilds one user's snapshot for the given period.
	Recompute(ctx context.Context, userID snowflake.ID, periodStart, periodEnd time.Time) (BusinessMetrics, error)
	// RecomputeAll rolls up the current month for every active subscriber.
	RecomputeAll(ctx context.Context, now time.Time) (int, error)
}

var ErrInvalidUser = errors.New("invalid_user")
